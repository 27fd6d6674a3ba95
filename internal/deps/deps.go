// Package deps reports which external tools are installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external tool goodmorning shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// Optional tools only disable the commands that use them.
	Optional bool
}

// Status is a Requirement with the result of looking it up on PATH.
type Status struct {
	Requirement
	Available bool
	// Path is the resolved executable when Available.
	Path   string
	Detail string
}

// CheckBinaries looks up every requirement on PATH, in order.
func CheckBinaries(requirements []Requirement) []Status {
	statuses := make([]Status, len(requirements))
	for i, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		statuses[i] = lookup(req)
	}
	return statuses
}

func lookup(req Requirement) Status {
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("%q not found on PATH", req.Command)
		return status
	}
	status.Available = true
	status.Path = path
	return status
}
