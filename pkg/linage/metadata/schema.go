package metadata

const schema = `
CREATE TABLE IF NOT EXISTS commits (
	id           VARCHAR(64)  NOT NULL PRIMARY KEY,
	digest       CHAR(64)     NOT NULL,
	message      TEXT         NOT NULL,
	author_name  VARCHAR(255) NOT NULL,
	author_email VARCHAR(255) NOT NULL,
	timestamp    BIGINT       NOT NULL,
	snapshot_id  BIGINT       NOT NULL,
	ai_assisted  BOOLEAN      NOT NULL DEFAULT FALSE,
	UNIQUE KEY uq_commits_digest (digest)
);

CREATE TABLE IF NOT EXISTS commit_parents (
	commit_id VARCHAR(64) NOT NULL,
	parent_id VARCHAR(64) NOT NULL,
	ordinal   INT         NOT NULL,
	PRIMARY KEY (commit_id, ordinal)
);

CREATE TABLE IF NOT EXISTS branches (
	id         BIGINT AUTO_INCREMENT PRIMARY KEY,
	name       VARCHAR(255) NOT NULL,
	head       VARCHAR(64)  NOT NULL,
	active     BOOLEAN      NOT NULL DEFAULT FALSE,
	created_at DATETIME     NOT NULL,
	UNIQUE KEY uq_branches_name (name)
);

CREATE TABLE IF NOT EXISTS snapshots (
	id        BIGINT AUTO_INCREMENT PRIMARY KEY,
	timestamp BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS file_records (
	id          BIGINT AUTO_INCREMENT PRIMARY KEY,
	snapshot_id BIGINT        NOT NULL,
	path        VARCHAR(1024) NOT NULL,
	digest      CHAR(64)      NOT NULL,
	size        BIGINT        NOT NULL,
	modified_at DATETIME      NOT NULL,
	deleted     BOOLEAN       NOT NULL DEFAULT FALSE,
	KEY idx_file_records_snapshot (snapshot_id),
	KEY idx_file_records_path (path(255))
);

CREATE TABLE IF NOT EXISTS line_changes (
	id          BIGINT AUTO_INCREMENT PRIMARY KEY,
	commit_id   VARCHAR(64) NOT NULL,
	line_number INT         NOT NULL,
	old_digest  CHAR(64)    NOT NULL DEFAULT '',
	new_digest  CHAR(64)    NOT NULL DEFAULT '',
	type        VARCHAR(16) NOT NULL,
	timestamp   BIGINT      NOT NULL,
	KEY idx_line_changes_commit (commit_id, line_number)
);

CREATE TABLE IF NOT EXISTS remotes (
	name       VARCHAR(255) NOT NULL PRIMARY KEY,
	url        TEXT         NOT NULL,
	protocol   VARCHAR(16)  NOT NULL,
	is_default BOOLEAN      NOT NULL DEFAULT FALSE,
	project_id VARCHAR(255) NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ai_activity (
	id        BIGINT AUTO_INCREMENT PRIMARY KEY,
	commit_id VARCHAR(64) NOT NULL,
	note      TEXT        NOT NULL,
	timestamp BIGINT      NOT NULL,
	KEY idx_ai_activity_commit (commit_id)
);

CREATE TABLE IF NOT EXISTS conflicts (
	id            BIGINT AUTO_INCREMENT PRIMARY KEY,
	path          VARCHAR(1024) NOT NULL,
	base_text     LONGTEXT      NOT NULL,
	local_text    LONGTEXT      NOT NULL,
	remote_text   LONGTEXT      NOT NULL,
	resolved      BOOLEAN       NOT NULL DEFAULT FALSE,
	resolved_text LONGTEXT      NOT NULL DEFAULT ''
);
`
