package cmd

// validationFailedError marks a command failure caused by a workflow
// failing structural validation, mapped to ExitCodeValidationFailed.
type validationFailedError struct{ msg string }

func (e *validationFailedError) Error() string { return e.msg }

// prerequisiteFailedError marks a command failure caused by unmet
// prerequisites (missing CLI, not authenticated, missing assets), mapped to
// ExitCodePrerequisiteFailed.
type prerequisiteFailedError struct{ msg string }

func (e *prerequisiteFailedError) Error() string { return e.msg }
