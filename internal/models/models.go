package models

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles known to the permission table.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleAgent      = "agent"
)

// Lead statuses. Sale creation and validation force the last three.
const (
	LeadStatusNuevo         = "nuevo"
	LeadStatusContactado    = "contactado"
	LeadStatusInteresado    = "interesado"
	LeadStatusNoInteresado  = "no_interesado"
	LeadStatusNoContesta    = "no_contesta"
	LeadStatusVenta         = "venta"
	LeadStatusVentaValidada = "venta_validada"
	LeadStatusPerdido       = "perdido"
)

// Sale statuses. pending is the only non-terminal state.
const (
	SaleStatusPending   = "pending"
	SaleStatusValidated = "validated"
	SaleStatusRejected  = "rejected"
	SaleStatusCancelled = "cancelled"
)

// Profile represents a CRM user (admin, supervisor or agent).
type Profile struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role" gorm:"default:'agent';index"`
	Phone     string    `json:"phone,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Profile) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Campaign is a time-boxed sales initiative tied to an insurer.
// Campaigns are never deleted, only status-toggled.
type Campaign struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	Name        string     `json:"name" gorm:"not null"`
	Description string     `json:"description,omitempty"`
	Insurer     string     `json:"insurer"`
	Status      string     `json:"status" gorm:"default:'active'"` // active, paused, completed
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedBy   string     `json:"created_by" gorm:"size:36;index"`
	Creator     *Profile   `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
	Products    []Product  `json:"products,omitempty" gorm:"foreignKey:CampaignID"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (c *Campaign) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Product is a sellable insurance offering under a campaign. BaseCommission
// is a percentage in [0,100] applied verbatim in commission math.
type Product struct {
	ID               string    `json:"id" gorm:"primaryKey;size:36"`
	CampaignID       string    `json:"campaign_id" gorm:"size:36;index;not null"`
	Campaign         *Campaign `json:"campaign,omitempty" gorm:"foreignKey:CampaignID"`
	Name             string    `json:"name" gorm:"not null"`
	Type             string    `json:"type"` // salud, coche, vida, hogar, otro
	Description      string    `json:"description,omitempty"`
	BaseCommission   float64   `json:"base_commission"`
	CustomFormFields JSON      `json:"custom_form_fields,omitempty" gorm:"type:json"`
	IsActive         bool      `json:"is_active" gorm:"default:true"`
	CreatedAt        time.Time `json:"created_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Lead is a prospective customer routed through the sales funnel.
type Lead struct {
	ID                 string     `json:"id" gorm:"primaryKey;size:36"`
	CampaignID         *string    `json:"campaign_id,omitempty" gorm:"size:36;index"`
	Campaign           *Campaign  `json:"campaign,omitempty" gorm:"foreignKey:CampaignID"`
	AssignedAgent      *string    `json:"assigned_agent,omitempty" gorm:"size:36;index"`
	Agent              *Profile   `json:"agent,omitempty" gorm:"foreignKey:AssignedAgent"`
	AssignedSupervisor *string    `json:"assigned_supervisor,omitempty" gorm:"size:36;index"`
	Supervisor         *Profile   `json:"supervisor,omitempty" gorm:"foreignKey:AssignedSupervisor"`
	FirstName          string     `json:"first_name" gorm:"not null"`
	LastName           string     `json:"last_name"`
	Phone              string     `json:"phone" gorm:"not null"`
	Email              string     `json:"email,omitempty"`
	DNI                string     `json:"dni,omitempty" gorm:"column:dni"`
	Status             string     `json:"status" gorm:"default:'nuevo';index"`
	Priority           string     `json:"priority" gorm:"default:'normal'"` // baja, normal, alta, urgente
	Source             string     `json:"source,omitempty"`
	LastContactDate    *time.Time `json:"last_contact_date,omitempty"`
	NextFollowUp       *time.Time `json:"next_follow_up,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (l *Lead) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// Call is one dialer attempt against a lead. Created at call start with
// status=ringing; the end update computes durations and is terminal.
type Call struct {
	ID              string     `json:"id" gorm:"primaryKey;size:36"`
	LeadID          *string    `json:"lead_id,omitempty" gorm:"size:36;index"`
	Lead            *Lead      `json:"lead,omitempty" gorm:"foreignKey:LeadID"`
	AgentID         string     `json:"agent_id" gorm:"size:36;index;not null"`
	Agent           *Profile   `json:"agent,omitempty" gorm:"foreignKey:AgentID"`
	PhoneNumber     string     `json:"phone_number"`
	Direction       string     `json:"direction" gorm:"default:'outbound'"` // outbound, inbound
	Status          string     `json:"status" gorm:"default:'ringing'"`     // ringing, answered, no_answer, busy, failed, completed
	StartedAt       time.Time  `json:"started_at" gorm:"index"`
	AnsweredAt      *time.Time `json:"answered_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
	TalkTimeSeconds int        `json:"talk_time_seconds"`
	SIPCallID       string     `json:"sip_call_id,omitempty" gorm:"column:sip_call_id"`
	RecordingURL    string     `json:"recording_url,omitempty"`
	Outcome         string     `json:"outcome,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (c *Call) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Sale is a transaction pending supervisor validation. Commission amounts
// are computed once at creation from the product's rate at that instant and
// never recomputed afterwards.
type Sale struct {
	ID                   string     `json:"id" gorm:"primaryKey;size:36"`
	LeadID               string     `json:"lead_id" gorm:"size:36;index;not null"`
	Lead                 *Lead      `json:"lead,omitempty" gorm:"foreignKey:LeadID"`
	ProductID            string     `json:"product_id" gorm:"size:36;index;not null"`
	Product              *Product   `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	AgentID              string     `json:"agent_id" gorm:"size:36;index;not null"`
	Agent                *Profile   `json:"agent,omitempty" gorm:"foreignKey:AgentID"`
	SupervisorID         *string    `json:"supervisor_id,omitempty" gorm:"size:36"`
	PolicyNumber         string     `json:"policy_number,omitempty"`
	PremiumAmount        float64    `json:"premium_amount"`
	PaymentFrequency     string     `json:"payment_frequency" gorm:"default:'mensual'"` // mensual, trimestral, semestral, anual
	Status               string     `json:"status" gorm:"default:'pending';index"`
	AgentCommission      float64    `json:"agent_commission"`
	SupervisorCommission float64    `json:"supervisor_commission"`
	ValidatedBy          *string    `json:"validated_by,omitempty" gorm:"size:36"`
	ValidatedAt          *time.Time `json:"validated_at,omitempty"`
	CustomerData         JSON       `json:"customer_data,omitempty" gorm:"type:json"`
	SaleDate             time.Time  `json:"sale_date" gorm:"index"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// LeadHistory is the append-only audit trail for a lead. Rows are never
// mutated or deleted.
type LeadHistory struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	LeadID    string    `json:"lead_id" gorm:"size:36;index;not null"`
	UserID    *string   `json:"user_id,omitempty" gorm:"size:36"`
	User      *Profile  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Action    string    `json:"action"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *LeadHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// Permission is one row of the static authorization table. Seeded at
// startup, read-only at request time.
type Permission struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Role     string `json:"role" gorm:"uniqueIndex:idx_perm_lookup"`
	Resource string `json:"resource" gorm:"uniqueIndex:idx_perm_lookup"`
	Action   string `json:"action" gorm:"uniqueIndex:idx_perm_lookup"`
	Allowed  bool   `json:"allowed" gorm:"default:true"`
}

// TokenBlacklist represents revoked JWT tokens.
type TokenBlacklist struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TokenHash string    `json:"-" gorm:"uniqueIndex;not null"`
	UserID    string    `json:"user_id" gorm:"size:36;index"`
	ExpiresAt time.Time `json:"expires_at"`
	Reason    string    `json:"reason" gorm:"default:'logout'"`
	CreatedAt time.Time `json:"created_at"`
}

// JSON is a generic JSON field type
type JSON []byte

// Value implements the driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements the sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = JSON(v)
		return nil
	case string:
		*j = JSON(v)
		return nil
	default:
		return errors.New("cannot scan into JSON")
	}
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (j *JSON) UnmarshalJSON(data []byte) error {
	*j = JSON(data)
	return nil
}

// MarshalJSON implements the json.Marshaler interface
func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return []byte(j), nil
}
