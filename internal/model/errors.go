// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, sighting, external, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeEmailInUse           = "EMAIL_IN_USE"
	ErrCodeInvalidEmail         = "INVALID_EMAIL"
	ErrCodeWeakPassword         = "WEAK_PASSWORD"
	ErrCodePasswordMismatch     = "PASSWORD_MISMATCH"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeSightingNotFound     = "SIGHTING_NOT_FOUND"
	ErrCodeUnknownSpecies       = "UNKNOWN_SPECIES"
	ErrCodeConfirmationRequired = "CONFIRMATION_REQUIRED"
	ErrCodeInvalidCoordinate    = "INVALID_COORDINATE"
)

// NewInvalidCredentialsError はサインイン失敗エラーを生成する。
// ユーザー未登録とパスワード誤りを区別しない（列挙攻撃対策を兼ねる）。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewEmailInUseError はメールアドレス重複エラーを生成する。
func NewEmailInUseError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailInUse,
		Message:  "このメールアドレスは既に使用されています。",
		Category: "auth",
		Action:   "別のメールアドレスで登録するか、サインインしてください。",
	}
}

// NewInvalidEmailError はメールアドレス形式エラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  "メールアドレスの形式が正しくありません。",
		Category: "validation",
		Action:   "正しい形式のメールアドレスを入力してください。",
	}
}

// NewWeakPasswordError はパスワード強度不足エラーを生成する。
func NewWeakPasswordError(minLength int) *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  fmt.Sprintf("パスワードが短すぎます。%d文字以上で入力してください。", minLength),
		Category: "validation",
		Action:   "より長いパスワードを設定してください。",
	}
}

// NewPasswordMismatchError は確認用パスワードの不一致エラーを生成する。
func NewPasswordMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordMismatch,
		Message:  "パスワードが一致しません。",
		Category: "validation",
		Action:   "パスワードと確認用パスワードに同じ値を入力してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
// 認証セッションが存在しない場合、全ストア操作はこのエラーで失敗する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "サインインしてください。",
	}
}

// NewSightingNotFoundError は観察記録未検出エラーを生成する。
func NewSightingNotFoundError(sightingID string) *APIError {
	return &APIError{
		Code:     ErrCodeSightingNotFound,
		Message:  fmt.Sprintf("指定された観察記録が見つかりません: %s", sightingID),
		Category: "sighting",
		Action:   "観察記録IDを確認してください。",
	}
}

// NewUnknownSpeciesError は分類リスト未登録の種コードエラーを生成する。
func NewUnknownSpeciesError(speciesCode string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownSpecies,
		Message:  fmt.Sprintf("分類リストに存在しない種コードです: %s", speciesCode),
		Category: "validation",
		Action:   "検索リストから鳥を選択してください。",
	}
}

// NewConfirmationRequiredError は削除確認未実施エラーを生成する。
// 削除は意思確認（confirm=true）を経てから実行する二段階の操作。
func NewConfirmationRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeConfirmationRequired,
		Message:  "削除には確認が必要です。",
		Category: "validation",
		Action:   "confirm=true を指定して再度リクエストしてください。",
	}
}

// NewInvalidCoordinateError は座標パラメータ不正エラーを生成する。
func NewInvalidCoordinateError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCoordinate,
		Message:  fmt.Sprintf("座標の形式が正しくありません: %s", reason),
		Category: "validation",
		Action:   "lat、lng を数値で指定してください。",
	}
}
