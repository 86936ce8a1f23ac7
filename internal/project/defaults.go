package project

const (
	// DefaultAppDirectory is the app directory relative to the project root.
	DefaultAppDirectory = "app"

	// DefaultAssetsBuildDirectory is the client output directory relative to the project root.
	DefaultAssetsBuildDirectory = "public/build"

	// DefaultPublicPath is the URL prefix for client assets.
	DefaultPublicPath = "/build/"

	// DefaultServerBuildPath is the server bundle path relative to the project root.
	DefaultServerBuildPath = "build/index.js"

	routesDirName = "routes"
)

// configFileNames are tried in order; the first one present wins.
var configFileNames = []string{"kiln.yaml", "kiln.yml", "kiln.toml"}

// entryExtensions are tried in order when locating entry and root modules.
var entryExtensions = []string{".tsx", ".ts", ".jsx", ".js"}

// routeExtensions are the file extensions that define routes under app/routes.
var routeExtensions = map[string]bool{
	".tsx": true,
	".ts":  true,
	".jsx": true,
	".js":  true,
	".md":  true,
	".mdx": true,
}

func applyDefaults(fc *fileConfig) {
	if fc.AppDirectory == "" {
		fc.AppDirectory = DefaultAppDirectory
	}
	if fc.AssetsBuildDirectory == "" {
		fc.AssetsBuildDirectory = DefaultAssetsBuildDirectory
	}
	if fc.PublicPath == "" {
		fc.PublicPath = DefaultPublicPath
	}
	if fc.ServerBuildPath == "" {
		fc.ServerBuildPath = DefaultServerBuildPath
	}
}
