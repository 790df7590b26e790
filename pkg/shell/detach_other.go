//go:build !unix

package shell

import "os/exec"

func detach(cmd *exec.Cmd) {}
