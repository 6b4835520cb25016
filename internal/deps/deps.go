package deps

// Requirement names an external program lipsync may run.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency. For executables found on
// PATH, Command holds the resolved path.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates each requirement with CheckExecutable.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, CheckExecutable(req.Name, req.Command, req.Description, req.Optional))
	}
	return results
}
