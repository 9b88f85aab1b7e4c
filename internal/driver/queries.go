package driver

// Relationship types cannot be query parameters in Cypher, so every family
// edge is stored as RELATED with the kind as a property.

var IndexQueries = []string{
	"CREATE INDEX ON :Person(tree_id);",
	"CREATE INDEX ON :Person(id);",
	"CREATE INDEX ON :TreeSettings(tree_id);",
}

const (
	ClearTreeQuery = `
		MATCH (n {tree_id: $tree_id})
		WHERE n:Person OR n:TreeSettings
		DETACH DELETE n
	`

	SavePersonQuery = `
		CREATE (p:Person {tree_id: $tree_id, id: $id})
		SET p.seq = $seq,
			p.name = $name,
			p.gender = $gender,
			p.birth_date = $birth_date,
			p.death_date = $death_date,
			p.photo = $photo,
			p.note = $note,
			p.pos_x = $pos_x,
			p.pos_y = $pos_y
		RETURN p.id AS id
	`

	SaveRelationshipQuery = `
		MATCH (source:Person {tree_id: $tree_id, id: $from})
		MATCH (target:Person {tree_id: $tree_id, id: $to})
		CREATE (source)-[r:RELATED {id: $id}]->(target)
		SET r.kind = $kind,
			r.seq = $seq
		RETURN r.id AS id
	`

	SaveSettingsQuery = `
		MERGE (s:TreeSettings {tree_id: $tree_id})
		SET s.data = $data,
			s.saved_at = $saved_at
		RETURN s.tree_id AS tree_id
	`

	GetTreeSettingsQuery = `
		MATCH (s:TreeSettings {tree_id: $tree_id})
		RETURN s.data AS data
	`

	GetTreePersonsQuery = `
		MATCH (p:Person {tree_id: $tree_id})
		RETURN p.id AS id, p.name AS name, p.gender AS gender,
			p.birth_date AS birth_date, p.death_date AS death_date,
			p.photo AS photo, p.note AS note, p.pos_x AS pos_x, p.pos_y AS pos_y
		ORDER BY p.seq
	`

	GetTreeRelationshipsQuery = `
		MATCH (source:Person {tree_id: $tree_id})-[r:RELATED]->(target:Person {tree_id: $tree_id})
		RETURN r.id AS id, r.kind AS kind, source.id AS source_id, target.id AS target_id
		ORDER BY r.seq
	`
)
