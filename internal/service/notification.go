package service

import (
	"github.com/kiez-net/kiez/internal/domain"
)

// to mock service in tests
type NotificationService interface {
	List(user *domain.User, unreadOnly bool, page int) ([]domain.Notification, int, error)
	MarkRead(id int64, user *domain.User) error
}

type Notifications struct {
	storage NotificationStorage
	perPage int
}

type NotificationStorage interface {
	Notifications(userId domain.UserId, unreadOnly bool, page, limit int) ([]domain.Notification, int, error)
	MarkNotificationRead(id int64, userId domain.UserId) error
}

func NewNotifications(storage NotificationStorage, perPage int) *Notifications {
	return &Notifications{storage, perPage}
}

func (n *Notifications) List(user *domain.User, unreadOnly bool, page int) ([]domain.Notification, int, error) {
	return n.storage.Notifications(user.Id, unreadOnly, max(1, page), n.perPage)
}

func (n *Notifications) MarkRead(id int64, user *domain.User) error {
	return n.storage.MarkNotificationRead(id, user.Id)
}
