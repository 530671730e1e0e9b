//go:build !unix

package shell

import "os/exec"

// killGroupOnCancel keeps the exec.CommandContext default of killing the
// direct child only.
func killGroupOnCancel(*exec.Cmd) {}
