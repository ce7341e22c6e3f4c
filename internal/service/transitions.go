package service

import (
	"fmt"

	"github.com/workbridge/backend/internal/model"
)

// milestoneAuthority は一方の当事者が設定できるマイルストーン状態と、その際のナレーション。
// クライアントとタレントの権限は非対称で、同じ状態列挙の上に別々の定義を持つ。
type milestoneAuthority struct {
	role      model.Role
	operation string
	narration map[model.MilestoneStatus]string
}

// クライアントは承認するか、作業中に差し戻す
var clientMilestoneAuthority = milestoneAuthority{
	role:      model.RoleClient,
	operation: "client_set_milestone_status",
	narration: map[model.MilestoneStatus]string{
		model.MilestoneStatusApproved:   `Client approved milestone "%s".`,
		model.MilestoneStatusInProgress: `Client sent milestone "%s" back to in progress.`,
	},
}

// タレントは着手するか、レビュー待ちとして完了にする
var talentMilestoneAuthority = milestoneAuthority{
	role:      model.RoleTalent,
	operation: "talent_set_milestone_status",
	narration: map[model.MilestoneStatus]string{
		model.MilestoneStatusInProgress: `Talent started work on milestone "%s".`,
		model.MilestoneStatusCompleted:  `Talent marked milestone "%s" as completed.`,
	},
}

func (a milestoneAuthority) permits(status model.MilestoneStatus) bool {
	_, ok := a.narration[status]
	return ok
}

func (a milestoneAuthority) narrate(status model.MilestoneStatus, title string) string {
	return fmt.Sprintf(a.narration[status], title)
}

// reviewEffect はレビュー判断が納品物とマイルストーンに与える状態
type reviewEffect struct {
	delivery  model.DeliveryStatus
	milestone model.MilestoneStatus
	verb      string
}

var reviewEffects = map[model.ReviewDecision]reviewEffect{
	model.DecisionApprove: {
		delivery:  model.DeliveryStatusApproved,
		milestone: model.MilestoneStatusApproved,
		verb:      "Client approved the delivery",
	},
	model.DecisionRevision: {
		delivery:  model.DeliveryStatusRevision,
		milestone: model.MilestoneStatusInProgress,
		verb:      "Client requested a revision of the delivery",
	},
}

func (e reviewEffect) narrate(milestoneTitle string) string {
	if milestoneTitle == "" {
		return e.verb + "."
	}
	return fmt.Sprintf(`%s for milestone "%s".`, e.verb, milestoneTitle)
}

func narrateSubmission(milestoneTitle string) string {
	if milestoneTitle == "" {
		return "Talent submitted a delivery."
	}
	return fmt.Sprintf(`Talent submitted a delivery for milestone "%s".`, milestoneTitle)
}

// projectTransitions はプロジェクトのライフサイクルで許可される遷移
var projectTransitions = map[model.ProjectStatus][]model.ProjectStatus{
	model.ProjectStatusDraft:       {model.ProjectStatusActive, model.ProjectStatusCancelled},
	model.ProjectStatusActive:      {model.ProjectStatusMaintenance, model.ProjectStatusCompleted, model.ProjectStatusCancelled},
	model.ProjectStatusMaintenance: {model.ProjectStatusActive, model.ProjectStatusCompleted, model.ProjectStatusCancelled},
}

func canMoveProject(from, to model.ProjectStatus) bool {
	for _, s := range projectTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

var projectStatusNarration = map[model.ProjectStatus]string{
	model.ProjectStatusActive:      "Project is now active.",
	model.ProjectStatusMaintenance: "Project moved to maintenance.",
	model.ProjectStatusCompleted:   "Project was marked as completed.",
	model.ProjectStatusCancelled:   "Project was cancelled.",
}
