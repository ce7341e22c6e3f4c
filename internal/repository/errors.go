package repository

import "errors"

var (
	// ErrNotFound はプロジェクト配下に対象の行がない場合に返す。他プロジェクトの行も同じ扱い
	ErrNotFound = errors.New("repository: record not found")

	// ErrPingInTx はトランザクション内の Store に対して Ping した場合に返す
	ErrPingInTx = errors.New("repository: ping inside transaction")
)
