package storage

import "path"

// Object key layout:
//
//	documents/<orgId>/<contentHash><ext>   original upload, content addressed
//	<document key>.extracted.txt           extracted-text cache
//	exports/<extractionId><ext>            rendered claim export

// DocumentKey is where an upload's bytes live. Identical content within an
// org maps to the same key.
func DocumentKey(orgID, contentHash, ext string) string {
	return path.Join("documents", orgID, contentHash+ext)
}

// TextCacheKey sits next to the document it caches.
func TextCacheKey(documentKey string) string {
	return documentKey + ".extracted.txt"
}

func ExportKey(extractionID, ext string) string {
	return path.Join("exports", extractionID+ext)
}
