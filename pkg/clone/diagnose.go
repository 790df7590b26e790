package clone

import (
	"strings"

	"github.com/arthur-debert/macsetup/pkg/shell"
)

// ExitClass is the coarse classification of a clone's exit code
type ExitClass string

const (
	ExitOK      ExitClass = "ok"
	ExitTimeout ExitClass = "timeout"
	ExitFatal   ExitClass = "fatal"
	ExitAuth    ExitClass = "auth-layer"
	ExitError   ExitClass = "error"
)

// ClassifyExit maps an exit code to its class. git exits 128 on fatal
// errors; ssh exits 255 when the transport fails before git runs.
func ClassifyExit(code int) ExitClass {
	switch code {
	case 0:
		return ExitOK
	case shell.ExitTimeout:
		return ExitTimeout
	case 128:
		return ExitFatal
	case 255:
		return ExitAuth
	default:
		return ExitError
	}
}

// Category is the heuristic cause of a failed clone
type Category string

const (
	CategoryTimeout        Category = "timeout"
	CategoryAuth           Category = "authentication"
	CategoryBranchNotFound Category = "branch-not-found"
	CategoryRepoNotFound   Category = "repository-not-found"
	CategoryNetwork        Category = "network"
	CategoryNotEmpty       Category = "destination-not-empty"
	CategoryVerification   Category = "verification"
	CategoryCancelled      Category = "cancelled"
	CategoryUnknown        Category = "unknown"
)

// Diagnostic describes a failed clone. Command, ExitCode and Stderr are always
// the raw values; Category and Remediation are advisory.
type Diagnostic struct {
	Command     string
	ExitCode    int
	ExitClass   ExitClass
	Stderr      string
	Category    Category
	Remediation string
}

type diagnosisRule struct {
	category    Category
	exitCodes   []int
	patterns    []string
	remediation string
}

// Rules are evaluated in order and the first match wins. Branch errors come
// before repository errors since git reports a missing branch with
// "not found" wording too. HTTP status refusals come before network errors:
// git prefixes both with "unable to access".
var diagnosisRules = []diagnosisRule{
	{
		category:    CategoryTimeout,
		exitCodes:   []int{shell.ExitTimeout},
		remediation: "Increase --clone-timeout or check the connection speed, then re-run",
	},
	{
		category: CategoryAuth,
		patterns: []string{
			"permission denied (publickey",
			"authentication failed",
			"could not read username",
			"could not read password",
			"host key verification failed",
			"terminal prompts disabled",
			"invalid username or password",
			"returned error: 401",
			"returned error: 403",
		},
		remediation: "Check your SSH key (ssh -T git@github.com) or credentials, or switch repositories.protocol",
	},
	{
		category: CategoryBranchNotFound,
		patterns: []string{
			"remote branch",
			"couldn't find remote ref",
			"not found in upstream",
		},
		remediation: "Check the #branch suffix of the repository entry",
	},
	{
		category: CategoryRepoNotFound,
		patterns: []string{
			"repository not found",
			"does not appear to be a git repository",
			"could not be found",
			"project you were looking for",
			"returned error: 404",
		},
		remediation: "Check the repository name and that your account can access it",
	},
	{
		category: CategoryNetwork,
		patterns: []string{
			"could not resolve host",
			"connection refused",
			"connection timed out",
			"network is unreachable",
			"unable to access",
			"early eof",
			"rpc failed",
			"connection reset",
		},
		remediation: "Check network connectivity and proxy settings, then re-run",
	},
	{
		category: CategoryNotEmpty,
		patterns: []string{
			"already exists and is not an empty directory",
		},
		remediation: "Move the existing directory away or pick another destination",
	},
}

// Diagnose classifies a failed clone from its command result
func Diagnose(result shell.Result) *Diagnostic {
	d := &Diagnostic{
		Command:   result.Command,
		ExitCode:  result.ExitCode,
		ExitClass: ClassifyExit(result.ExitCode),
		Stderr:    result.Stderr,
		Category:  CategoryUnknown,
	}
	code := result.ExitCode
	if result.TimedOut {
		code = shell.ExitTimeout
		d.ExitClass = ExitTimeout
	}

	stderr := strings.ToLower(result.Stderr)
	for _, rule := range diagnosisRules {
		if rule.matches(code, stderr) {
			d.Category = rule.category
			d.Remediation = rule.remediation
			return d
		}
	}

	d.Remediation = "Run the command by hand to see the full error"
	return d
}

func (r diagnosisRule) matches(exitCode int, stderr string) bool {
	for _, code := range r.exitCodes {
		if code == exitCode {
			return true
		}
	}
	for _, p := range r.patterns {
		if strings.Contains(stderr, p) {
			return true
		}
	}
	return false
}

func verificationDiagnostic(command, marker string) *Diagnostic {
	return &Diagnostic{
		Command:     command,
		ExitCode:    0,
		ExitClass:   ExitOK,
		Category:    CategoryVerification,
		Remediation: "The clone reported success but " + marker + " is missing; check for a conflicting directory or git template",
	}
}
