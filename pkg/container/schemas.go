package container

import "github.com/Garik-/dse/pkg/ledger"

// Record schemas, in file byte order. Field ids are the keys the registry
// and the text form use.
var (
	SMDLHeaderSchema = ledger.NewSchema("smdl.header",
		ledger.Opaque("unk7", ledger.U32),
		ledger.Derived("flen", ledger.U32),
		ledger.Known("version", ledger.U16),
		ledger.Known("unk1", ledger.U8),
		ledger.Known("unk2", ledger.U8),
		ledger.Opaque("unk3", ledger.U32),
		ledger.Opaque("unk4", ledger.U32),
		ledger.Known("year", ledger.U16),
		ledger.Known("month", ledger.U8),
		ledger.Known("day", ledger.U8),
		ledger.Known("hour", ledger.U8),
		ledger.Known("minute", ledger.U8),
		ledger.Known("second", ledger.U8),
		ledger.Known("centisecond", ledger.U8),
		ledger.KnownName("fname", 16, 0xFF),
		ledger.Opaque("unk5", ledger.U32),
		ledger.Opaque("unk6", ledger.U32),
		ledger.Opaque("unk8", ledger.U32),
		ledger.Opaque("unk9", ledger.U32),
	)

	SongHeaderSchema = ledger.NewSchema("smdl.song.header",
		ledger.Opaque("unk1", ledger.U32),
		ledger.Opaque("unk2", ledger.U32),
		ledger.Opaque("unk3", ledger.U32),
	)

	SongSchema = ledger.NewSchema("smdl.song",
		ledger.Opaque("unk4", ledger.U16),
		ledger.Known("tpqn", ledger.U16),
		ledger.Opaque("unk5", ledger.U16),
		ledger.Derived("nbtrks", ledger.U8),
		ledger.Known("nbchans", ledger.U8),
		ledger.Opaque("unk6", ledger.U32),
		ledger.Opaque("unk7", ledger.U32),
		ledger.Opaque("unk8", ledger.U32),
		ledger.Opaque("unk9", ledger.U32),
		ledger.Opaque("unk10", ledger.U16),
		ledger.Opaque("unk11", ledger.U16),
		ledger.Opaque("unk12", ledger.U32),
		ledger.OpaqueBytes("unkpad", 16),
	)

	SMDLChunkSchema = ledger.NewSchema("smdl.chunk",
		ledger.Opaque("param1", ledger.U32),
		ledger.Opaque("param2", ledger.U32),
		ledger.Derived("chunklen", ledger.U32),
	)

	TrackSchema = ledger.NewSchema("smdl.track",
		ledger.Known("trkid", ledger.U8),
		ledger.Known("chanid", ledger.U8),
		ledger.Opaque("unk1", ledger.U8),
		ledger.Opaque("unk2", ledger.U8),
	)

	SWDLHeaderSchema = ledger.NewSchema("swdl.header",
		ledger.Opaque("unk18", ledger.U32),
		ledger.Derived("flen", ledger.U32),
		ledger.Known("version", ledger.U16),
		ledger.Known("unk1", ledger.U8),
		ledger.Known("unk2", ledger.U8),
		ledger.Opaque("unk3", ledger.U32),
		ledger.Opaque("unk4", ledger.U32),
		ledger.Known("year", ledger.U16),
		ledger.Known("month", ledger.U8),
		ledger.Known("day", ledger.U8),
		ledger.Known("hour", ledger.U8),
		ledger.Known("minute", ledger.U8),
		ledger.Known("second", ledger.U8),
		ledger.Known("centisecond", ledger.U8),
		ledger.KnownName("fname", 16, 0xAA),
		ledger.Opaque("unk10", ledger.U32),
		ledger.Opaque("unk11", ledger.U32),
		ledger.Opaque("unk12", ledger.U32),
		ledger.Opaque("unk13", ledger.U32),
		ledger.Known("pcmdlen", ledger.U32),
		ledger.Opaque("unk14", ledger.U16),
		ledger.Derived("nbwavislots", ledger.U16),
		ledger.Known("nbprgislots", ledger.U16),
		ledger.Opaque("unk17", ledger.U16),
		ledger.Derived("wavilen", ledger.U32),
	)

	SWDLChunkSchema = ledger.NewSchema("swdl.chunk",
		ledger.Opaque("unk1", ledger.U16),
		ledger.Opaque("unk2", ledger.U16),
		ledger.Opaque("chunkbeg", ledger.U32),
		ledger.Derived("chunklen", ledger.U32),
	)

	SampleSchema = ledger.NewSchema("swdl.sample", append([]ledger.Descriptor{
		ledger.Opaque("unk1", ledger.U16),
		ledger.Known("id", ledger.U16),
		ledger.Known("ftune", ledger.U8),
		ledger.Known("ctune", ledger.I8),
		ledger.Known("rootkey", ledger.I8),
		ledger.Known("ktps", ledger.I8),
		ledger.Known("volume", ledger.I8),
		ledger.Known("pan", ledger.I8),
		ledger.Opaque("unk5", ledger.U8),
		ledger.Opaque("unk58", ledger.U8),
		ledger.Opaque("unk6", ledger.U16),
		ledger.Opaque("unk7", ledger.U16),
		ledger.Opaque("unk59", ledger.U16),
		ledger.Known("smplfmt", ledger.U16),
		ledger.Opaque("unk9", ledger.U8),
		ledger.Known("smplloop", ledger.Bool),
		ledger.Opaque("unk10", ledger.U16),
		ledger.Opaque("unk11", ledger.U16),
		ledger.Opaque("unk12", ledger.U16),
		ledger.Opaque("unk13", ledger.U32),
		ledger.Known("smplrate", ledger.U32),
		ledger.Known("smplpos", ledger.U32),
		ledger.Known("loopbeg", ledger.U32),
		ledger.Known("looplen", ledger.U32),
	}, envelope...)...)

	ProgramSchema = ledger.NewSchema("swdl.program",
		ledger.Known("id", ledger.U16),
		ledger.Derived("nbsplits", ledger.U16),
		ledger.Known("prgvol", ledger.I8),
		ledger.Known("prgpan", ledger.I8),
		ledger.Opaque("unk3", ledger.U8),
		ledger.Opaque("fbyte", ledger.U8),
		ledger.Opaque("unk4", ledger.U16),
		ledger.Opaque("unk5", ledger.U8),
		ledger.Derived("nblfos", ledger.U8),
		ledger.Known("padbyte", ledger.U8),
		ledger.Opaque("unk7", ledger.U8),
		ledger.Opaque("unk8", ledger.U8),
		ledger.Opaque("unk9", ledger.U8),
	)

	LFOSchema = ledger.NewSchema("swdl.lfo",
		ledger.Opaque("unk34", ledger.U8),
		ledger.Opaque("unk52", ledger.U8),
		ledger.Known("dest", ledger.U8),
		ledger.Known("wshape", ledger.U8),
		ledger.Known("rate", ledger.U16),
		ledger.Opaque("unk29", ledger.U16),
		ledger.Known("depth", ledger.U16),
		ledger.Known("delay", ledger.U16),
		ledger.Opaque("unk32", ledger.U16),
		ledger.Opaque("unk33", ledger.U16),
	)

	SplitSchema = ledger.NewSchema("swdl.split", append([]ledger.Descriptor{
		ledger.Opaque("unk10", ledger.U8),
		ledger.Known("id", ledger.U8),
		ledger.Opaque("unk11", ledger.U8),
		ledger.Opaque("unk25", ledger.U8),
		ledger.Known("lowkey", ledger.I8),
		ledger.Known("hikey", ledger.I8),
		ledger.Opaque("lowkey2", ledger.I8),
		ledger.Opaque("hikey2", ledger.I8),
		ledger.Known("lovel", ledger.I8),
		ledger.Known("hivel", ledger.I8),
		ledger.Opaque("lovel2", ledger.I8),
		ledger.Opaque("hivel2", ledger.I8),
		ledger.Opaque("unk16", ledger.U32),
		ledger.Opaque("unk17", ledger.U16),
		ledger.Known("smplid", ledger.U16),
		ledger.Known("ftune", ledger.U8),
		ledger.Known("ctune", ledger.I8),
		ledger.Known("rootkey", ledger.I8),
		ledger.Known("ktps", ledger.I8),
		ledger.Known("smplvol", ledger.I8),
		ledger.Known("smplpan", ledger.I8),
		ledger.Known("kgrpid", ledger.U8),
		ledger.Opaque("unk22", ledger.U8),
		ledger.Opaque("unk23", ledger.U16),
		ledger.Opaque("unk24", ledger.U16),
	}, envelope...)...)

	KeygroupSchema = ledger.NewSchema("swdl.keygroup",
		ledger.Known("id", ledger.U16),
		ledger.Known("poly", ledger.I8),
		ledger.Known("priority", ledger.U8),
		ledger.Known("vclow", ledger.I8),
		ledger.Known("vchigh", ledger.I8),
		ledger.Opaque("unk50", ledger.U8),
		ledger.Opaque("unk51", ledger.U8),
	)
)

// volume envelope shared by samples and splits
var envelope = []ledger.Descriptor{
	ledger.Known("env_on", ledger.Bool),
	ledger.Known("env_mult", ledger.U8),
	ledger.Opaque("env_unk19", ledger.U8),
	ledger.Opaque("env_unk20", ledger.U8),
	ledger.Opaque("env_unk21", ledger.U16),
	ledger.Opaque("env_unk22", ledger.U16),
	ledger.Known("env_atkvol", ledger.I8),
	ledger.Known("env_attack", ledger.I8),
	ledger.Known("env_decay", ledger.I8),
	ledger.Known("env_sustain", ledger.I8),
	ledger.Known("env_hold", ledger.I8),
	ledger.Known("env_decay2", ledger.I8),
	ledger.Known("env_release", ledger.I8),
	ledger.Opaque("env_unk57", ledger.U8),
}

// Schemas lists every record schema of both formats.
func Schemas() []*ledger.Schema {
	return []*ledger.Schema{
		SMDLHeaderSchema, SongHeaderSchema, SongSchema, SMDLChunkSchema, TrackSchema,
		SWDLHeaderSchema, SWDLChunkSchema, SampleSchema, ProgramSchema, LFOSchema,
		SplitSchema, KeygroupSchema,
	}
}
