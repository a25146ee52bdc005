package tallybook

import "github.com/tallybook/tallybook/id"

// ID is the primary identifier type for all Tallybook entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
