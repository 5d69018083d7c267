package member

import (
	"context"
	"errors"

	"github.com/samber/oops"
	"gorm.io/gorm"
)

// Repository は会員ストアへのアクセスを提供します。
// 該当なしはエラーではなく nil で表します。
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Member, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindByNameAndPhone(ctx context.Context, name, phone string) (*Member, error)
	Insert(ctx context.Context, m *Member) (*Member, error)
}

// GormRepository は gorm を使った Repository 実装です。
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository は GormRepository を作成します。
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// FindByEmail はメールアドレスが一致する会員を1件返します。
// 重複が存在する場合は ID が最小のものを返します（LIMIT 1）。
func (r *GormRepository) FindByEmail(ctx context.Context, email string) (*Member, error) {
	return r.first("find by email", r.db.WithContext(ctx).Where("email = ?", email))
}

// ExistsByEmail はメールアドレスが登録済みかどうかを返します。id 列のみを取得します。
func (r *GormRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&Member{}).
		Where("email = ?", email).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return false, oops.Code("MEMBER_QUERY_FAILED").
			With("operation", "exists by email").
			Wrap(err)
	}
	return len(ids) > 0, nil
}

// FindByNameAndPhone は名前と電話番号が両方一致する会員を1件返します。
func (r *GormRepository) FindByNameAndPhone(ctx context.Context, name, phone string) (*Member, error) {
	return r.first("find by name and phone",
		r.db.WithContext(ctx).Where("name = ? AND phone_number = ?", name, phone))
}

// Insert は会員を追加し、採番された ID を設定して返します。重複チェックは行いません。
func (r *GormRepository) Insert(ctx context.Context, m *Member) (*Member, error) {
	if m == nil {
		return nil, oops.Code("MEMBER_INSERT_FAILED").Errorf("member is nil")
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailConflict
		}
		return nil, oops.Code("MEMBER_INSERT_FAILED").
			With("operation", "insert").
			Wrap(err)
	}
	return m, nil
}

func (r *GormRepository) first(op string, q *gorm.DB) (*Member, error) {
	var m Member
	result := q.Order("id").Limit(1).Find(&m)
	if result.Error != nil {
		return nil, oops.Code("MEMBER_QUERY_FAILED").
			With("operation", op).
			Wrap(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &m, nil
}
