package member

import "errors"

var (
	// ErrDuplicateEmail は既に登録済みのメールアドレスで会員登録しようとした場合に返されます。
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrAccountNotFound は該当する会員が存在しない場合に返されます。
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials はパスワードが一致しない場合に返されます。
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailConflict はストレージの一意制約によって挿入が拒否された場合に返されます。
	ErrEmailConflict = errors.New("email unique constraint violated")
)
