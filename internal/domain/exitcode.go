package domain

import "fmt"

// ExitCode is a stable numeric and symbolic identifier reported when a run
// terminates, attributable to a specific stage or plugin.
type ExitCode struct {
	Status  int
	Label   string
	Message string
}

func (c ExitCode) IsZero() bool {
	return c.Status == 0 && c.Label == ""
}

func (c ExitCode) String() string {
	if c.Label == "" {
		return fmt.Sprintf("%d", c.Status)
	}
	return fmt.Sprintf("%d (%s)", c.Status, c.Label)
}

var (
	// ExitOK marks a run that reached RESULTS without any failure.
	ExitOK = ExitCode{Status: 0, Label: "OK", Message: "run finished successfully"}

	// ExitRelaxFailed is reported when the relaxation sub-workflow did not
	// finish successfully.
	ExitRelaxFailed = ExitCode{
		Status:  401,
		Label:   "ERROR_SUB_PROCESS_FAILED_RELAX",
		Message: "the relaxation sub-workflow failed",
	}

	// ExitPdosFailedLegacy is a historical reservation. The pdos plugin is
	// numbered by the dynamic per-plugin scheme like every other plugin;
	// this code is kept in the table so that 402 is never reassigned, but
	// it is never selected at run time.
	ExitPdosFailedLegacy = ExitCode{
		Status:  402,
		Label:   "ERROR_SUB_PROCESS_FAILED_PDOS",
		Message: "the pdos sub-workflow failed",
	}
)

// PluginExitCodeBase is the first status number handed out to registered
// plugins, in registration order.
const PluginExitCodeBase = 403

// PluginExitCode builds the exit code of the plugin registered at ordinal
// position k (zero-based). Allocation happens at registration time so two
// registries built from the same plugin list always number identically.
func PluginExitCode(name string, ordinal int) ExitCode {
	return ExitCode{
		Status:  PluginExitCodeBase + ordinal,
		Label:   fmt.Sprintf("ERROR_SUB_PROCESS_FAILED_%s", name),
		Message: fmt.Sprintf("the %s plugin sub-workflow failed", name),
	}
}
