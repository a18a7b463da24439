package db

// schemaSQL declares the knowledge table. The single %d placeholder is the
// HNSW index dimension, which must match the configured embedding dimension.
const schemaSQL = `
    DEFINE TABLE IF NOT EXISTS knowledge SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS text ON knowledge TYPE string;
    DEFINE FIELD IF NOT EXISTS embedding ON knowledge TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS category ON knowledge TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS language ON knowledge TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS source ON knowledge TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS confidence ON knowledge TYPE float DEFAULT 0.5;
    DEFINE FIELD IF NOT EXISTS created_at ON knowledge TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated_at ON knowledge TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS knowledge_category ON knowledge FIELDS category;
    DEFINE INDEX IF NOT EXISTS knowledge_language ON knowledge FIELDS language;
    DEFINE INDEX IF NOT EXISTS knowledge_embedding ON knowledge FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;
`
