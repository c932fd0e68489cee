package store

const Schema = `
CREATE TABLE IF NOT EXISTS artists (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	image_url TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS albums (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	artist_id INTEGER NOT NULL REFERENCES artists(id),
	release_year INTEGER NOT NULL DEFAULT 0,
	cover_image_url TEXT NOT NULL DEFAULT '',
	local_cover_path TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE(name, artist_id)
);

CREATE TABLE IF NOT EXISTS songs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	album_id INTEGER NOT NULL REFERENCES albums(id),
	duration INTEGER NOT NULL DEFAULT 0,
	image_url TEXT NOT NULL DEFAULT '',
	local_image_path TEXT NOT NULL DEFAULT '',
	file_path TEXT NOT NULL DEFAULT '',
	file_size INTEGER NOT NULL DEFAULT 0,
	download_count INTEGER NOT NULL DEFAULT 0,
	likes_count INTEGER NOT NULL DEFAULT 0,
	lyrics TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE(name, album_id)
);

CREATE INDEX IF NOT EXISTS idx_songs_name ON songs(name);
CREATE INDEX IF NOT EXISTS idx_albums_name ON albums(name);

CREATE TABLE IF NOT EXISTS song_artists (
	song_id INTEGER NOT NULL REFERENCES songs(id),
	artist_id INTEGER NOT NULL REFERENCES artists(id),
	position INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (song_id, artist_id)
);

CREATE TABLE IF NOT EXISTS downloads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	song_id INTEGER NOT NULL REFERENCES songs(id),
	user_id INTEGER,
	download_time DATETIME NOT NULL,
	source_url TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending'
);

CREATE INDEX IF NOT EXISTS idx_downloads_song_id ON downloads(song_id);
CREATE INDEX IF NOT EXISTS idx_downloads_user_id ON downloads(user_id);
`
