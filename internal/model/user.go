package model

import "time"

type Role string

const (
	RoleStaff   Role = "staff"   // администратор клуба
	RoleTrainer Role = "trainer" // тренер
	RoleTrainee Role = "trainee" // клиент
)

type User struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// Actor инициатор операции, передаётся явно в каждую операцию планировщика
type Actor struct {
	UserID int64
	Role   Role
}

// IsTrainee проверяет что операцию инициировал клиент
func (a Actor) IsTrainee() bool {
	return a.Role == RoleTrainee
}

// CanManageSchedule проверяет что пользователь может управлять расписанием
func (u *User) CanManageSchedule() bool {
	return u.Role == RoleStaff || u.Role == RoleTrainer
}

// Actor возвращает контекст инициатора для пользователя
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}
