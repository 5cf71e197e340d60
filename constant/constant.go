package constant

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

type MediaRole string

const (
	RoleProfile        MediaRole = "profile"
	RolePortfolio      MediaRole = "portfolio"
	RolePolaroid       MediaRole = "polaroid"
	RoleIntroVideo     MediaRole = "intro_video"
	RolePortfolioVideo MediaRole = "portfolio_video"
)

var roleCaps = map[MediaRole]int{
	RoleProfile:        1,
	RolePortfolio:      50,
	RolePolaroid:       6,
	RoleIntroVideo:     1,
	RolePortfolioVideo: 10,
}

func ParseRole(s string) (MediaRole, bool) {
	role := MediaRole(s)
	_, ok := roleCaps[role]
	return role, ok
}

func (r MediaRole) String() string {
	return string(r)
}

// Cap returns the maximum number of records allowed per owner for this role.
func (r MediaRole) Cap() int {
	return roleCaps[r]
}

// Singleton roles hold at most one record; a new upload replaces the prior one.
func (r MediaRole) Singleton() bool {
	return roleCaps[r] == 1
}

func (r MediaRole) MediaType() MediaType {
	switch r {
	case RoleIntroVideo, RolePortfolioVideo:
		return MediaTypeVideo
	default:
		return MediaTypeImage
	}
}

const (
	// MaxImageBytes bounds image uploads, checked by the validator.
	MaxImageBytes int64 = 6 << 20
	// MaxVideoBytes bounds the whole request body, enforced before the
	// multipart form is buffered.
	MaxVideoBytes int64 = 110 << 20
)

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
