package database

// schema is applied statement by statement so the DSN does not need multiStatements.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS wallify_users (
    id BIGINT NOT NULL AUTO_INCREMENT UNIQUE,
    username VARCHAR(50) NOT NULL PRIMARY KEY,
    firstname VARCHAR(50),
    lastname VARCHAR(50),
    email VARCHAR(100),
    password VARCHAR(100) NOT NULL,
    pfp LONGBLOB,
    premium TINYINT(1) NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS images_table (
    image_key VARCHAR(255) NOT NULL PRIMARY KEY,
    description TEXT,
    ` + "`user`" + ` VARCHAR(50) NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_images_user (` + "`user`" + `)
)`,
	`CREATE TABLE IF NOT EXISTS favorites (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    username VARCHAR(50) NOT NULL,
    image_key VARCHAR(255) NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY uniq_user_image (username, image_key)
)`,
	`CREATE TABLE IF NOT EXISTS search_logs (
    search_term VARCHAR(255) NOT NULL PRIMARY KEY,
    search_count INT NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS ai_generations (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    username VARCHAR(50) NOT NULL,
    prompt TEXT NOT NULL,
    image_url TEXT NOT NULL,
    aspect_ratio VARCHAR(10) NOT NULL,
    created_at DATETIME NOT NULL,
    INDEX idx_generations_user_day (username, created_at)
)`,
	`CREATE TABLE IF NOT EXISTS support_threads (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    author_username VARCHAR(50) NOT NULL,
    created_at DATETIME NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'open',
    category VARCHAR(50) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS thread_messages (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    thread_id BIGINT NOT NULL,
    author_username VARCHAR(50) NOT NULL,
    content TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    is_admin_reply TINYINT(1) NOT NULL DEFAULT 0,
    FOREIGN KEY (thread_id) REFERENCES support_threads(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS payments (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    username VARCHAR(50) NOT NULL,
    provider VARCHAR(32) NOT NULL,
    checkout_session_id VARCHAR(255) NOT NULL,
    status VARCHAR(32) NOT NULL,
    source VARCHAR(16) NOT NULL,
    raw_payload TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uniq_provider_session (provider, checkout_session_id)
)`,
}
