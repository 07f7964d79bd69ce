package show

import "errors"

// Show ドメインのエラー定義
var (
	// ErrShowNotFound はショーが存在しない場合のエラー（再試行しても解決しない）
	ErrShowNotFound = errors.New("ショーが見つかりません")

	// ErrShowServiceUnavailable は show-service への呼び出しが失敗または
	// タイムアウトした場合のエラー（呼び出し側で再試行可能）
	ErrShowServiceUnavailable = errors.New("show-service に接続できません")
)
