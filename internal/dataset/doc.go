// Package dataset creates datasets on the local filesystem.
//
// A dataset is a git repository carrying a .datalad/config file with a
// unique dataset id. A dataset created inside another one is registered as
// a subdataset in the superdataset's .datalad/subdatasets list:
//
//	super/
//	├── .git/
//	└── .datalad/
//	    ├── config            [datalad "dataset"] id = <uuid>
//	    ├── subdatasets       one path per line, relative to super
//	    └── subdatasets.lock  held while the list is rewritten
//
// Creator.Create is the consumer of a parallel run; Lines, File and Paths
// are its producers.
package dataset
