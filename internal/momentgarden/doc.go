// Package momentgarden mirrors Moment Garden gardens to disk.
//
// Each garden gets a directory holding one JSON file per moment under
// metadata/, comment threads under metadata/comments/, and downloaded media
// under image/ and video/ named "<date>_<basename>". A metadata file only
// records that the moment was listed; a media file with a non-zero size is
// a completed download. Nothing is ever deleted apart from stray .DS_Store
// files in the metadata directory.
//
// Sync runs in two phases per garden. SyncMetadata pages through the
// garden newest first and stops on an empty page, or once two pages in a
// row contributed nothing new. DownloadMedia then walks the cache and
// fetches whatever media is missing, up to a per-run ceiling. Per-item
// download failures are logged and counted rather than aborting the run.
package momentgarden
