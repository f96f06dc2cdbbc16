package domain

// ReplicaSet identifies the authoritative master and the set it governs.
type ReplicaSet struct {
	// Name is the replica-set name
	Name string

	// Master is the name of the master instance
	Master string
}

// Instance is one addressable download-client member of a replica set.
type Instance struct {
	Name     string
	URL      string
	Username string
	Password string
}

// Names returns the instance names in order.
func Names(instances []Instance) []string {
	names := make([]string, len(instances))
	for i, inst := range instances {
		names[i] = inst.Name
	}
	return names
}
