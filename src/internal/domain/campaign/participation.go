package campaign

import (
	"strings"
	"time"

	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
)

// ParticipationStatus 活動參加狀態
type ParticipationStatus string

const (
	ParticipationJoined    ParticipationStatus = "joined"
	ParticipationCompleted ParticipationStatus = "completed"
)

// Participation 使用者參加活動的記錄，每個 (campaign, user) 一筆
//
// 業務不變條件：
// - one_time 活動最多完成一次
// - daily 活動 lastCompletedDate 與今天同一營業日時不可再完成
type Participation struct {
	id                ParticipationID
	campaignID        CampaignID
	userID            string
	status            ParticipationStatus
	completedAt       *time.Time
	pointsAwarded     int64
	completionCount   int
	lastCompletedDate string
	joinedAt          time.Time

	version int
}

// NewParticipation 建立參加記錄（status = joined）
func NewParticipation(campaignID CampaignID, userID string, now time.Time) (*Participation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidParticipationID.WithContext("reason", "user id is required")
	}
	return &Participation{
		id:         NewParticipationID(),
		campaignID: campaignID,
		userID:     userID,
		status:     ParticipationJoined,
		joinedAt:   now,
	}, nil
}

// ParticipationRecord 重建參數
type ParticipationRecord struct {
	ID                ParticipationID
	CampaignID        CampaignID
	UserID            string
	Status            ParticipationStatus
	CompletedAt       *time.Time
	PointsAwarded     int64
	CompletionCount   int
	LastCompletedDate string
	JoinedAt          time.Time
	Version           int
}

// ReconstructParticipation 從持久化存儲重建
func ReconstructParticipation(r ParticipationRecord) (*Participation, error) {
	if r.ID.IsEmpty() {
		return nil, ErrInvalidParticipationID.WithContext("reason", "invalid participation ID in database")
	}
	if r.Status != ParticipationJoined && r.Status != ParticipationCompleted {
		return nil, ErrInvalidParticipationID.WithContext("reason", "unknown status", "value", string(r.Status))
	}
	return &Participation{
		id:                r.ID,
		campaignID:        r.CampaignID,
		userID:            r.UserID,
		status:            r.Status,
		completedAt:       r.CompletedAt,
		pointsAwarded:     r.PointsAwarded,
		completionCount:   r.CompletionCount,
		lastCompletedDate: r.LastCompletedDate,
		joinedAt:          r.JoinedAt,
		version:           r.Version,
	}, nil
}

func (p *Participation) ID() ParticipationID         { return p.id }
func (p *Participation) CampaignID() CampaignID      { return p.campaignID }
func (p *Participation) UserID() string              { return p.userID }
func (p *Participation) Status() ParticipationStatus { return p.status }
func (p *Participation) CompletedAt() *time.Time     { return p.completedAt }
func (p *Participation) PointsAwarded() int64        { return p.pointsAwarded }
func (p *Participation) CompletionCount() int        { return p.completionCount }
func (p *Participation) LastCompletedDate() string   { return p.lastCompletedDate }
func (p *Participation) JoinedAt() time.Time         { return p.joinedAt }
func (p *Participation) Version() int                { return p.version }

// Eligible 檢查此次完成是否通過活動類型的限制
//
// 錯誤：
// - ErrAlreadyCompleted：one_time 活動已完成
// - ErrAlreadyCompletedToday：daily 活動今天已完成
func (p *Participation) Eligible(c *Campaign, cal shared.BusinessCalendar, now time.Time) error {
	switch c.Type() {
	case TypeOneTime:
		if p.status == ParticipationCompleted {
			return ErrAlreadyCompleted.WithContext("campaign_id", c.ID().String())
		}
	case TypeDaily:
		if p.lastCompletedDate == cal.Day(now) {
			return ErrAlreadyCompletedToday.WithContext(
				"campaign_id", c.ID().String(),
				"day", p.lastCompletedDate,
			)
		}
	}
	return nil
}

// RecordCompletion 記錄一次完成
//
// 累加 pointsAwarded 與 completionCount，lastCompletedDate 設為今天的營業日。
func (p *Participation) RecordCompletion(c *Campaign, points int64, cal shared.BusinessCalendar, now time.Time) error {
	if !p.campaignID.Equals(c.ID()) {
		return ErrInvalidCampaign.WithContext("reason", "participation belongs to another campaign")
	}
	if err := p.Eligible(c, cal, now); err != nil {
		return err
	}
	completedAt := now
	p.status = ParticipationCompleted
	p.completedAt = &completedAt
	p.pointsAwarded += points
	p.completionCount++
	p.lastCompletedDate = cal.Day(now)
	return nil
}
