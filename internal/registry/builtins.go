package registry

// registerBuiltins installs every wrapper this package implements. Errors
// are impossible here since each type ID is registered exactly once.
func registerBuiltins(r *Registry) {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	must(r.Register(NameMapTypeID, Factory{
		Create:      newNameMap,
		CreateEmpty: newEmptyNameMap,
	}))

	must(r.Register(ImagePNGTypeID, Factory{
		Create:      newImage(ImagePNGTypeID),
		CreateEmpty: newEmptyImage(ImagePNGTypeID),
	}))
	must(r.Register(ImageDDSTypeID, Factory{
		Create:      newImage(ImageDDSTypeID),
		CreateEmpty: newEmptyImage(ImageDDSTypeID),
	}))

	must(r.Register(RLEResourceTypeIDA, Factory{
		Create:      newRLEResource(RLEResourceTypeIDA),
		CreateEmpty: newEmptyRLEResource(RLEResourceTypeIDA),
	}))
	must(r.Register(RLEResourceTypeIDB, Factory{
		Create:      newRLEResource(RLEResourceTypeIDB),
		CreateEmpty: newEmptyRLEResource(RLEResourceTypeIDB),
	}))

	must(r.Register(SimDataTypeID, Factory{
		Create:      newSimData,
		CreateEmpty: newEmptySimData,
	}))

	must(r.Register(CASPartTypeID, Factory{
		Create:      newCASPart,
		CreateEmpty: newEmptyCASPart,
	}))

	must(r.Register(SimOutfitTypeID, Factory{
		Create:      newSimOutfit,
		CreateEmpty: newEmptySimOutfit,
	}))

	must(r.Register(SkinToneTypeID, Factory{
		Create:      newSkinTone,
		CreateEmpty: newEmptySkinTone,
	}))

	must(r.Register(TemplateTypeID, Factory{
		Create:      newTemplate,
		CreateEmpty: newEmptyTemplate,
	}))

	must(r.Register(UserCASPresetTypeID, Factory{
		Create:      newUserCASPreset,
		CreateEmpty: newEmptyUserCASPreset,
	}))
}
