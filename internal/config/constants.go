package config

// Defaults matching the facility layout the importer was written for.
const (
	DefaultDatabasePath  = "./remote-import.db"
	DefaultAttachmentDir = "./attachments"
	DefaultMountPath     = "/Importer/"
	DefaultDataPath      = "/storage/OMERO_inplace/users/"
	DefaultWorkstations  = "cn-imaris,cn-lattice,cn-airyscan"
	DefaultDatasetDepth  = 10
)
