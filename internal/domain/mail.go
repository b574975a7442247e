package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type TimetableReadyMailData struct {
	FullName string             `json:"fullName"`
	RunID    int64              `json:"runID"`
	Name     string             `json:"name"`
	Status   TimetableRunStatus `json:"status"`
	Penalty  float64            `json:"penalty"`
}
