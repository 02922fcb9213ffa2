package database

const (
	// Account queries
	queryGetAccountByUser = `
		SELECT id, user_id, balance, version, created_at, updated_at
		FROM accounts
		WHERE user_id = ?`

	queryAccountExistsForUser = `
		SELECT EXISTS(SELECT 1 FROM accounts WHERE user_id = ?)`

	queryInsertAccount = `
		INSERT INTO accounts (id, user_id, balance, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryUpdateAccountBalance = `
		UPDATE accounts
		SET balance = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	// Ledger queries
	queryInsertTransaction = `
		INSERT INTO transactions (id, account_id, transaction_type, amount, created_at)
		VALUES (?, ?, ?, ?, ?)`

	queryGetTransactionsSince = `
		SELECT id, account_id, transaction_type, amount, created_at
		FROM transactions
		WHERE account_id = ? AND created_at >= ?
		ORDER BY created_at, rowid`

	// Outbox queries
	queryInsertOutboxMessage = `
		INSERT INTO outbox_messages (message_key, topic, payload, status, retry_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`

	queryGetPendingOutboxMessages = `
		SELECT id, message_key, topic, payload, status, retry_count, created_at, updated_at
		FROM outbox_messages
		WHERE status = 'PENDING'
		ORDER BY id
		LIMIT ?`

	queryUpdateOutboxStatus = `
		UPDATE outbox_messages SET status = ?, updated_at = ? WHERE id = ?`

	queryIncrementOutboxRetry = `
		UPDATE outbox_messages SET retry_count = retry_count + 1, updated_at = ? WHERE id = ?`
)
