// Package configs manages reclaim configuration.
//
// Configuration is a single TOML file, by default
// <UserConfigDir>/reclaim/config.toml:
//
//	[account]
//	user_id = "3c2b..."
//	device_id = "a5f0..."
//	device_name = "laptop"
//
//	[store]
//	backend = "diskv"   # inmem, diskv or mysql
//	path = ""           # diskv directory
//	dsn = ""            # mysql data source name
//
//	[local]
//	path = ""           # local secret inventory directory
//
//	[kdf]
//	iterations = 500000
//
//	[cross_signing]
//	master_key = "..." # trusted public keys, unpadded base64
//	self_signing_key = "..."
//	user_signing_key = "..."
//
// Account and device IDs are generated the first time the config is created.
// Use ResolveSettings to find the config file and data directory; both can
// be overridden with RECLAIM_CONFIG and RECLAIM_DATA_DIR.
package configs
