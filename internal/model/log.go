package model

import (
	"encoding/json"
	"time"
)

// LogAction enumerates what an audit Log row records.
type LogAction string

const (
	ActionCreateCode       LogAction = "CREATE_CODE"
	ActionDeleteCode       LogAction = "DELETE_CODE"
	ActionListCodes        LogAction = "LIST_CODES"
	ActionRedeemCode       LogAction = "REDEEM_CODE"
	ActionViewMessageStats LogAction = "VIEW_MESSAGE_STATS"
	ActionSendMessage      LogAction = "SEND_MESSAGE"
	ActionUpdatePrivacy    LogAction = "UPDATE_PRIVACY"
	ActionSubmitFeedback   LogAction = "SUBMIT_FEEDBACK"
)

// Valid reports whether a is one of the declared actions.
func (a LogAction) Valid() bool {
	switch a {
	case ActionCreateCode, ActionDeleteCode, ActionListCodes, ActionRedeemCode,
		ActionViewMessageStats, ActionSendMessage, ActionUpdatePrivacy, ActionSubmitFeedback:
		return true
	}
	return false
}

// ValidLogMethod reports whether m is an HTTP method the audit log accepts.
func ValidLogMethod(m string) bool {
	switch m {
	case "GET", "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}

// Log is an append-only audit record. Detail is opaque JSON chosen by the
// caller and is stored verbatim.
type Log struct {
	ID         string          `json:"id"         bson:"_id"`
	ActorID    string          `json:"actorId"    bson:"actor_id"`
	Action     LogAction       `json:"action"     bson:"action"`
	Method     string          `json:"method"     bson:"method"`
	Endpoint   string          `json:"endpoint"   bson:"endpoint"`
	StatusCode int             `json:"statusCode" bson:"status_code"`
	Detail     json.RawMessage `json:"detail"     bson:"detail,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"  bson:"created_at"`
}
