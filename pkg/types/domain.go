package types

// Module is a loadable engine module found on disk.
type Module struct {
	// example: glm
	Name string `json:"name" example:"glm"`
	// example: /usr/lib/JAGS/modules-4/glm.so
	Path string `json:"path" example:"/usr/lib/JAGS/modules-4/glm.so"`
}

// Factory describes a sampler, monitor or RNG factory.
type Factory struct {
	// example: bugs::ConjugateNormal
	Name string `json:"name" example:"bugs::ConjugateNormal"`
	// One of sampler, monitor, rng.
	// example: sampler
	Type string `json:"type" example:"sampler"`
	// example: true
	Active bool `json:"active" example:"true"`
}

// Sampler names one sampler and the node arrays it updates.
type Sampler struct {
	// example: bugs::ConjugateNormal
	Method string `json:"method" example:"bugs::ConjugateNormal"`
	// example: ["mu"]
	Nodes []string `json:"nodes" example:"[\"mu\"]"`
}
