package media

type AssetType string

const (
	AssetTypeSnapshot  AssetType = "snapshot"  // enrollment photos
	AssetTypeThumbnail AssetType = "thumbnail" // generated previews for the admin UI
	AssetTypeUnknown   AssetType = "unknown"
)
