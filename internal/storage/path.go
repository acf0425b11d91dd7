package storage

// ResolvePath derives the storage prefix for a file from its owner's root
// folder and the folder containing it. Files in the root folder live
// directly under the root; everything else lives one segment deeper.
//
// This is the single path-derivation choke point: upload and download both
// go through it, so the two can never disagree about where content lives.
// Distinct users have distinct root folder ids, so resolved paths never
// collide across tenants.
func ResolvePath(userRootFolderID, fileFolderID string) string {
	if userRootFolderID == fileFolderID {
		return userRootFolderID
	}
	return userRootFolderID + "/" + fileFolderID
}
