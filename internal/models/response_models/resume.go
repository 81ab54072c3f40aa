package response_models

// ResumeLimits reports nil Total and Remaining for plans without a ceiling.
type ResumeLimits struct {
	PlanName  string `json:"plan_name"`
	CanCreate bool   `json:"can_create"`
	Used      int64  `json:"used"`
	Total     *int64 `json:"total"`
	Remaining *int64 `json:"remaining"`
}
