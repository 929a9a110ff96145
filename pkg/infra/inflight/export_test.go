package inflight

var ReleaseScriptHash = releaseScript.Hash()
