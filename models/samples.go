package models

import "time"

// SampleAlbums is the starter collection used when nothing has been saved yet.
func SampleAlbums() []AlbumRecord {
	now := time.Now()

	abbey := NewAlbum("Abbey Road", "The Beatles", 1969, "Rock")
	abbey.Rating = 5.0
	abbey.PersonalReview = "An absolute masterpiece. The medley on Side B is perfection."
	abbey.DateAdded = now
	abbey.TrackListing = []TrackRecord{
		NewTrack("A1", "Come Together", "4:20"),
		NewTrack("A2", "Something", "3:03"),
		NewTrack("A3", "Maxwell's Silver Hammer", "3:27"),
		NewTrack("B1", "Here Comes The Sun", "3:05"),
		NewTrack("B2", "The End", "2:19"),
	}
	abbey.Condition = ConditionNearMint
	abbey.PurchasePrice = Ptr(35.00)
	abbey.IsFavorite = true
	abbey.Label = Ptr("Apple Records")
	abbey.Country = Ptr("UK")

	kind := NewAlbum("Kind of Blue", "Miles Davis", 1959, "Jazz")
	kind.Rating = 4.5
	kind.PersonalReview = "The warmth of vinyl brings out the beauty of this jazz classic."
	kind.DateAdded = now
	kind.Condition = ConditionVeryGood
	kind.PurchasePrice = Ptr(28.00)
	kind.IsFavorite = true
	kind.Label = Ptr("Columbia")
	kind.Country = Ptr("US")

	dsotm := NewAlbum("The Dark Side of the Moon", "Pink Floyd", 1973, "Progressive Rock")
	dsotm.Rating = 5.0
	dsotm.PersonalReview = "A sonic journey. The gatefold artwork is stunning."
	dsotm.DateAdded = now
	dsotm.Condition = ConditionNearMint
	dsotm.PurchasePrice = Ptr(42.00)
	dsotm.IsFavorite = true
	dsotm.Label = Ptr("Harvest")
	dsotm.Country = Ptr("UK")

	return []AlbumRecord{abbey, kind, dsotm}
}

// DefaultStores is the built-in directory used when the bundled file is
// missing or unreadable.
func DefaultStores() []StoreRecord {
	return []StoreRecord{
		{
			ID:          "red-eye-records",
			Name:        "Red Eye Records",
			Address:     "66 King St",
			Suburb:      "Sydney",
			Postcode:    "2000",
			Lat:         -33.8688,
			Lng:         151.2093,
			Phone:       Ptr("(02) 9233 8828"),
			Hours:       "Mon-Sat 10am-6pm, Sun 11am-5pm",
			Description: "Sydney's iconic independent record store since 2003. Specializing in new and second-hand vinyl across all genres.",
			Website:     Ptr("https://redeyerecords.com.au"),
			Instagram:   Ptr("@redeyerecords"),
			Specialty:   []string{"Indie", "Rock", "Electronic", "Jazz"},
		},
		{
			ID:          "basement-discs",
			Name:        "Basement Discs",
			Address:     "ShopE04/377 Sussex St",
			Suburb:      "Sydney",
			Postcode:    "2000",
			Lat:         -33.8731,
			Lng:         151.2042,
			Phone:       Ptr("(02) 9283 1088"),
			Hours:       "Mon-Fri 11am-6pm, Sat 11am-5pm",
			Description: "Underground vinyl paradise in the CBD. Extensive collection of rare and collectible records.",
			Instagram:   Ptr("@basementdiscs"),
			Specialty:   []string{"Rare Vinyl", "Collectibles", "Rock", "Soul"},
		},
		{
			ID:          "berkelouw-paddington",
			Name:        "Berkelouw Books",
			Address:     "19 Oxford St",
			Suburb:      "Paddington",
			Postcode:    "2021",
			Lat:         -33.8848,
			Lng:         151.2265,
			Phone:       Ptr("(02) 9360 3200"),
			Hours:       "Daily 10am-6pm",
			Description: "Beautiful bookstore with a curated selection of vinyl records. Perfect for a Sunday afternoon browse.",
			Website:     Ptr("https://berkelouw.com.au"),
			Instagram:   Ptr("@berkelouwbooks"),
			Specialty:   []string{"Classical", "Jazz", "Soundtrack", "World"},
		},
		{
			ID:          "egg-records",
			Name:        "Egg Records Newtown",
			Address:     "3/166 King St",
			Suburb:      "Newtown",
			Postcode:    "2042",
			Lat:         -33.8964,
			Lng:         151.1814,
			Phone:       Ptr("(02) 9550 3301"),
			Hours:       "Daily 11am-7pm",
			Description: "Newtown's legendary vinyl destination. Massive selection of new releases and second-hand gems.",
			Website:     Ptr("https://eggrecords.com"),
			Instagram:   Ptr("@eggrecordsnewtown"),
			Specialty:   []string{"Punk", "Metal", "Alternative", "Hip-Hop"},
		},
		{
			ID:          "sonic-sherpa",
			Name:        "Sonic Sherpa",
			Address:     "34 Oxford St",
			Suburb:      "Darlinghurst",
			Postcode:    "2010",
			Lat:         -33.8774,
			Lng:         151.2187,
			Phone:       Ptr("(02) 9331 3222"),
			Hours:       "Daily 11am-7pm",
			Description: "Electronic and dance music specialists. DJ equipment and rare imports.",
			Website:     Ptr("https://sonicsherpa.com"),
			Instagram:   Ptr("@sonicsherpa"),
			Specialty:   []string{"Electronic", "House", "Techno", "Ambient"},
		},
		{
			ID:          "repressed-records",
			Name:        "Repressed Records",
			Address:     "401 King St",
			Suburb:      "Newtown",
			Postcode:    "2042",
			Lat:         -33.8982,
			Lng:         151.1803,
			Hours:       "Tue-Sun 11am-6pm",
			Description: "Newtown's newest vinyl haven. Focus on Australian artists and limited editions.",
			Instagram:   Ptr("@repressedrecords"),
			Specialty:   []string{"Australian", "Indie", "Limited Editions"},
		},
		{
			ID:          "folkways-music",
			Name:        "Folkways Music",
			Address:     "282 Oxford St",
			Suburb:      "Paddington",
			Postcode:    "2021",
			Lat:         -33.8863,
			Lng:         151.2289,
			Phone:       Ptr("(02) 9361 3980"),
			Hours:       "Mon-Sat 10am-6pm, Sun 12pm-5pm",
			Description: "Folk, acoustic, and world music specialists since 1976. Knowledgeable staff and listening stations.",
			Website:     Ptr("https://folkways.com.au"),
			Instagram:   Ptr("@folkwaysmusic"),
			Specialty:   []string{"Folk", "Acoustic", "World", "Blues"},
		},
	}
}
