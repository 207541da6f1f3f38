package tool

// ToolAvailablePositions names the lookup in logs and persona template data.
const ToolAvailablePositions = "available_positions"

const availablePositions = "Currently, we have openings for AI Engineers and Data Scientists."

// AvailablePositions lists the currently open positions in the company.
// It is deterministic and takes no input.
func AvailablePositions() string {
	return availablePositions
}
