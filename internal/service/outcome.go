package service

// RejectReason はコマンドが破棄された理由
type RejectReason string

const (
	RejectMissingField     RejectReason = "missing_field"
	RejectStatusNotAllowed RejectReason = "status_not_allowed"
	RejectUnknownDecision  RejectReason = "unknown_decision"
	RejectEmptyBody        RejectReason = "empty_body"
)

// Outcome はワークフロー操作の結果。
// Applied=false のとき何も変更されておらず、Reason に破棄理由が入る。
type Outcome struct {
	Applied  bool         `json:"applied"`
	Reason   RejectReason `json:"reason,omitempty"`
	EntityID string       `json:"entity_id,omitempty"`
}

func applied(entityID string) Outcome {
	return Outcome{Applied: true, EntityID: entityID}
}

func rejected(reason RejectReason) Outcome {
	return Outcome{Reason: reason}
}
