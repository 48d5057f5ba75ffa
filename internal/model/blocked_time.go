package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/calendar"
)

// EndsMode — как условие окончания повтора хранится в БД и ходит по API.
type EndsMode string

const (
	EndsNever  EndsMode = "Never"
	EndsOnDate EndsMode = "On date"
	EndsAfter  EndsMode = "After"
)

// blocked_times
//
// Условие окончания лежит в трёх колонках (EndsMode, EndsOnDate,
// EndsAfterOccurrences), но читать и писать его нужно только через
// Recurrence / SetRecurrence: хук BeforeSave отклоняет смешанные состояния.
type BlockedTime struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	StaffID uuid.UUID `gorm:"type:uuid;not null;index"`
	Title   string    `gorm:"type:varchar(255);not null"`

	StartDate datatypes.Date `gorm:"type:date;not null;index"`
	FromTime  calendar.Clock `gorm:"type:varchar(5);not null"`
	ToTime    calendar.Clock `gorm:"type:varchar(5);not null"`

	Frequency            calendar.Frequency `gorm:"type:varchar(16);not null;default:'None'"`
	EndsMode             *EndsMode          `gorm:"type:varchar(16)"`
	EndsOnDate           *datatypes.Date    `gorm:"type:date"`
	EndsAfterOccurrences *int

	Description string `gorm:"type:varchar(255)"`
	Approved    bool   `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Staff *Staff `gorm:"foreignKey:StaffID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (b *BlockedTime) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

func (b *BlockedTime) BeforeSave(*gorm.DB) error {
	return b.Validate()
}

func (b *BlockedTime) Date() time.Time {
	return calendar.DateOf(time.Time(b.StartDate))
}

func (b *BlockedTime) Window() calendar.Range {
	return calendar.Range{Start: b.FromTime, End: b.ToTime}
}

// Recurrence собирает правило повтора из колонок.
func (b *BlockedTime) Recurrence() (calendar.Rule, error) {
	ends, err := DecodeEnds(b.EndsMode, b.EndsOnDate, b.EndsAfterOccurrences)
	if err != nil {
		return calendar.Rule{}, err
	}
	return calendar.NewRule(b.Date(), b.Frequency, ends)
}

// SetRecurrence раскладывает правило по колонкам; дата начала берётся из правила.
func (b *BlockedTime) SetRecurrence(rule calendar.Rule) {
	b.StartDate = datatypes.Date(rule.Start)
	b.Frequency = rule.Frequency
	b.EndsMode, b.EndsOnDate, b.EndsAfterOccurrences = EncodeEnds(rule.Ends)
}

// ActiveOn — есть ли повторение в дату d. Битые строки никогда не активны.
func (b *BlockedTime) ActiveOn(d time.Time) bool {
	rule, err := b.Recurrence()
	if err != nil {
		return false
	}
	return rule.OccursOn(d)
}

func (b *BlockedTime) Validate() error {
	if b.StaffID == uuid.Nil {
		return fmt.Errorf("%w: blocked time staff is required", ErrInvalidEntity)
	}
	if b.Title == "" {
		return fmt.Errorf("%w: blocked time title is required", ErrInvalidEntity)
	}
	if _, err := calendar.NewRange(b.FromTime, b.ToTime); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}
	if _, err := b.Recurrence(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}
	return nil
}

// DecodeEnds превращает три опциональных поля в условие окончания.
// Заполнено должно быть ровно то поле, которого требует mode.
func DecodeEnds(mode *EndsMode, onDate *datatypes.Date, after *int) (calendar.EndCondition, error) {
	if mode == nil {
		if onDate != nil || after != nil {
			return nil, fmt.Errorf("%w: end fields set without ends mode", calendar.ErrInvalidEnd)
		}
		return nil, nil
	}

	switch *mode {
	case EndsNever:
		if onDate != nil || after != nil {
			return nil, fmt.Errorf("%w: never-ending rule has end fields", calendar.ErrInvalidEnd)
		}
		return calendar.NeverEnds{}, nil
	case EndsOnDate:
		if onDate == nil || after != nil {
			return nil, fmt.Errorf("%w: %q needs exactly an end date", calendar.ErrInvalidEnd, *mode)
		}
		return calendar.EndsOnDate{Date: calendar.DateOf(time.Time(*onDate))}, nil
	case EndsAfter:
		if after == nil || onDate != nil {
			return nil, fmt.Errorf("%w: %q needs exactly an occurrence count", calendar.ErrInvalidEnd, *mode)
		}
		return calendar.EndsAfter{Occurrences: *after}, nil
	default:
		return nil, fmt.Errorf("%w: unknown ends mode %q", calendar.ErrInvalidEnd, *mode)
	}
}

// EncodeEnds — обратное преобразование для хранения и ответа API.
func EncodeEnds(ends calendar.EndCondition) (*EndsMode, *datatypes.Date, *int) {
	switch e := ends.(type) {
	case calendar.NeverEnds:
		mode := EndsNever
		return &mode, nil, nil
	case calendar.EndsOnDate:
		mode := EndsOnDate
		d := datatypes.Date(calendar.DateOf(e.Date))
		return &mode, &d, nil
	case calendar.EndsAfter:
		mode := EndsAfter
		n := e.Occurrences
		return &mode, nil, &n
	default:
		return nil, nil, nil
	}
}
