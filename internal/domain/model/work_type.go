package model

import "strings"

// WorkType names one of the independent request pipelines.
type WorkType string

const (
	WorkTypeDisease WorkType = "disease"
	WorkTypeChat    WorkType = "chat"
)

// WorkTypes lists every pipeline in the order the service loop scans them.
var WorkTypes = []WorkType{WorkTypeDisease, WorkTypeChat}

func ParseWorkType(s string) (WorkType, bool) {
	switch WorkType(strings.ToLower(strings.TrimSpace(s))) {
	case WorkTypeDisease:
		return WorkTypeDisease, true
	case WorkTypeChat:
		return WorkTypeChat, true
	}
	return "", false
}

func (w WorkType) String() string { return string(w) }
