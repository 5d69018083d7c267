package member

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
)

// SignupRequest は会員登録時の入力値です。値の検証は行いません。
type SignupRequest struct {
	Name             string
	PhoneNumber      string
	Email            string
	Password         string
	StoreName        string
	StoreManagerName string
	StoreAddress     string
	Region           string
	OfficeName       string
	OfficeNumber     string
}

// Service は会員登録と認証のビジネスルールを担います。
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService は Service を作成します。
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Signup は会員を登録し、ID が採番された会員を返します。
//
// 存在確認と挿入はアトミックではありません。同時登録で存在確認をすり抜けた場合は
// ストレージの一意制約 (ErrEmailConflict) で検出し、ErrDuplicateEmail として返します。
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*Member, error) {
	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	saved, err := s.repo.Insert(ctx, &Member{
		Name:             req.Name,
		PhoneNumber:      req.PhoneNumber,
		Email:            req.Email,
		Password:         req.Password,
		StoreName:        req.StoreName,
		StoreManagerName: req.StoreManagerName,
		StoreAddress:     req.StoreAddress,
		Region:           req.Region,
		OfficeName:       req.OfficeName,
		OfficeNumber:     req.OfficeNumber,
	})
	if err != nil {
		if errors.Is(err, ErrEmailConflict) {
			s.logger.Warn("signup lost race on unique email", "email", req.Email)
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	s.logger.Info("member signed up", "member_id", saved.ID)
	return saved, nil
}

// Authenticate はメールアドレスとパスワードを検証し、一致した会員を返します。
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Member, error) {
	m, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrAccountNotFound
	}
	if !insecurePlaintextEqual(m.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return m, nil
}

// IsEmailRegistered はメールアドレスが登録済みかどうかを返します。
func (s *Service) IsEmailRegistered(ctx context.Context, email string) (bool, error) {
	return s.repo.ExistsByEmail(ctx, email)
}

// FindByNameAndPhone は名前と電話番号で会員を検索します。
func (s *Service) FindByNameAndPhone(ctx context.Context, name, phone string) (*Member, error) {
	m, err := s.repo.FindByNameAndPhone(ctx, name, phone)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrAccountNotFound
	}
	return m, nil
}

// insecurePlaintextEqual は平文パスワード同士を比較します。
// パスワードはハッシュ化されずに保存されているため、これは安全な認証方式ではありません。
func insecurePlaintextEqual(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
