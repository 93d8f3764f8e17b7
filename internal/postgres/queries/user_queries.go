package queries

const (
	QueryCreateUser = `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`
	QueryGetUserByID = `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE id = $1;
	`
	QueryGetUserByEmail = `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE email = $1;
	`
	QueryExistsUserByEmail    = `SELECT 1 FROM users WHERE email = $1;`
	QueryExistsUserByUsername = `SELECT 1 FROM users WHERE username = $1;`
)
