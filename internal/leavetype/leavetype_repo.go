package leavetype

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=leavetype_repo.go -destination=mock/leavetype_repo_mock.go -package=mock
type Repository interface {
	FindAll(ctx context.Context) ([]LeaveType, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	Seed(ctx context.Context, names []string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindAll(ctx context.Context) ([]LeaveType, error) {
	var types []LeaveType
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&types).Error
	return types, err
}

func (r *repository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LeaveType{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Seed(ctx context.Context, names []string) error {
	for _, name := range names {
		lt := LeaveType{Name: name}
		if err := r.db.WithContext(ctx).
			Where("name = ?", name).
			FirstOrCreate(&lt).Error; err != nil {
			return err
		}
	}
	return nil
}
