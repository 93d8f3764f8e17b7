package queries

// Каждое сообщение читается вместе со снапшотом ответа (один hop, LEFT JOIN).
// Колонки: id, sender_id, sender, text, reply_to, created_at,
// r_id, r_sender_id, r_sender, r_text, r_created_at.
const (
	QueryCreateMessage = `
		WITH ins AS (
			INSERT INTO messages (id, sender_id, sender, text, reply_to, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, sender_id, sender, text, reply_to, created_at
		)
		SELECT ins.id, ins.sender_id, ins.sender, ins.text, ins.reply_to, ins.created_at,
		       r.id, r.sender_id, r.sender, r.text, r.created_at
		FROM ins
		LEFT JOIN messages r ON r.id = ins.reply_to;
	`
	QueryGetMessage = `
		SELECT m.id, m.sender_id, m.sender, m.text, m.reply_to, m.created_at,
		       r.id, r.sender_id, r.sender, r.text, r.created_at
		FROM messages m
		LEFT JOIN messages r ON r.id = m.reply_to
		WHERE m.id = $1;
	`
	QueryDeleteMessage = `DELETE FROM messages WHERE id = $1;`

	// последние $1 сообщений, отданные по возрастанию
	QueryRecentMessages = `
		SELECT id, sender_id, sender, text, reply_to, created_at,
		       r_id, r_sender_id, r_sender, r_text, r_created_at
		FROM (
			SELECT m.id, m.sender_id, m.sender, m.text, m.reply_to, m.created_at,
			       r.id AS r_id, r.sender_id AS r_sender_id, r.sender AS r_sender,
			       r.text AS r_text, r.created_at AS r_created_at
			FROM messages m
			LEFT JOIN messages r ON r.id = m.reply_to
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT $1
		) recent
		ORDER BY created_at ASC, id ASC;
	`
)
