package task

type CategoryFailedTask struct {
	RunID        string `json:"run_id"`
	CategoryURL  string `json:"category_url"`  // URL of the failed category
	CategoryPath string `json:"category_path"` // Normalized path of the failed category
	Depth        int    `json:"depth"`         // Depth in the taxonomy, 0 for roots
	Error        string `json:"error"`         // Error message from the last attempt
}

func (t *CategoryFailedTask) TaskType() string {
	return "CategoryFailedTask"
}

func (t *CategoryFailedTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
