package common

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleBarber Role = "barber"
	RoleClient Role = "client"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// CurrentUser is the authenticated caller, passed explicitly into services.
type CurrentUser struct {
	ID   uuid.UUID
	Role Role
}

func (u CurrentUser) Is(role Role) bool {
	return u.Role == role
}

// Profile is a user account; its id matches the one issued by the external auth service.
type Profile struct {
	UUID       uuid.UUID `gorm:"type:uuid;primary_key" json:"uuid"`
	FullName   string    `gorm:"not null" json:"full_name"`
	Role       Role      `gorm:"type:varchar(20);not null" json:"role"`
	Phone      string    `gorm:"index" json:"phone"`
	Email      string    `json:"email"`
	Telegram   string    `json:"telegram"`
	TelegramID int64     `gorm:"index" json:"telegram_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
}

// Service is one offering of a barber.
type Service struct {
	UUID       uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"uuid"`
	BarberID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"barber_id"`
	CategoryID *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Name       string     `gorm:"type:varchar(255);not null" json:"name"`
	Duration   int        `gorm:"not null" json:"duration"` // minutes
	Price      float64    `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	IsActive   bool       `gorm:"not null" json:"is_active"`
}

// Availability is a barber's working window for one weekday.
type Availability struct {
	UUID      uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"uuid"`
	BarberID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_availability_barber_day" json:"barber_id"`
	DayOfWeek int       `gorm:"type:int;not null;uniqueIndex:idx_availability_barber_day" json:"day_of_week"` // 0 is Sunday
	StartTime string    `gorm:"type:time;not null" json:"start_time"`
	EndTime   string    `gorm:"type:time;not null" json:"end_time"`
	IsEnabled bool      `gorm:"not null;default:true" json:"is_enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Availability) TableName() string {
	return "barber_availability"
}

type Booking struct {
	UUID            uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"uuid"`
	BarberID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"barber_id"`
	ClientID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"client_id"`
	ServiceID       uuid.UUID     `gorm:"type:uuid;not null" json:"service_id"`
	StartTime       time.Time     `gorm:"not null;index" json:"start_time"`
	EndTime         time.Time     `gorm:"not null" json:"end_time"`
	TotalPrice      float64       `gorm:"type:decimal(10,2);not null" json:"total_price"`
	Status          BookingStatus `gorm:"type:varchar(20);not null" json:"status"`
	CalendarEventID string        `json:"calendar_event_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	CancelledAt     *time.Time    `json:"cancelled_at,omitempty"`
}

type BlockedClient struct {
	UUID      uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"uuid"`
	BarberID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_blocked_barber_client" json:"barber_id"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_blocked_barber_client" json:"client_id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type Review struct {
	UUID      uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"uuid"`
	BarberID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_review_barber_client" json:"barber_id"`
	ClientID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_review_barber_client" json:"client_id"`
	Rating    int        `gorm:"not null" json:"rating"`
	Comment   string     `json:"comment"`
	Reply     string     `json:"reply,omitempty"`
	RepliedAt *time.Time `json:"replied_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Notification struct {
	UUID      uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"uuid"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind      string    `gorm:"type:varchar(40);not null" json:"kind"`
	Title     string    `gorm:"not null" json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// Barber extends a barber's profile with the public card; UUID is the profile id.
type Barber struct {
	UUID               uuid.UUID          `gorm:"type:uuid;primary_key" json:"uuid"`
	Bio                string             `json:"bio"`
	Address            string             `json:"address"`
	CityID             *uuid.UUID         `gorm:"type:uuid;index" json:"city_id,omitempty"`
	NeighborhoodID     *uuid.UUID         `gorm:"type:uuid;index" json:"neighborhood_id,omitempty"`
	VerificationStatus VerificationStatus `gorm:"type:varchar(20);not null;index" json:"verification_status"`
	VerificationNote   string             `json:"verification_note,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

type City struct {
	UUID uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"uuid"`
	Name string    `gorm:"type:varchar(120);not null;uniqueIndex" json:"name"`
}

type Neighborhood struct {
	UUID   uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"uuid"`
	CityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_neighborhood_city_name" json:"city_id"`
	Name   string    `gorm:"type:varchar(120);not null;uniqueIndex:idx_neighborhood_city_name" json:"name"`
}

type Category struct {
	UUID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"uuid"`
	Name        string    `gorm:"type:varchar(120);not null;uniqueIndex" json:"name"`
	Description string    `json:"description"`
	IconURL     string    `json:"icon_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LoyaltyPoints is a client's balance with one barber.
type LoyaltyPoints struct {
	UUID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"uuid"`
	ClientID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_loyalty_client_barber" json:"client_id"`
	BarberID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_loyalty_client_barber" json:"barber_id"`
	PointsBalance int       `gorm:"not null" json:"points_balance"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (LoyaltyPoints) TableName() string {
	return "loyalty_points"
}
