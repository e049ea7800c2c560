package domain

import "time"

type User struct {
	Id          UserId    `json:"id"`
	Email       Email     `json:"email"`
	DisplayName string    `json:"displayName"`
	PassHash    string    `json:"-"`
	Admin       bool      `json:"admin"`
	Karma       int       `json:"karma"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Credentials struct {
	Email    Email
	Password string
}

type Notification struct {
	Id        int64     `json:"id"`
	UserId    UserId    `json:"userId"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}
