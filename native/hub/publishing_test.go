package hub

import (
	"errors"
	"testing"
)

func TestPostAssignsSequentialPubIDs(t *testing.T) {
	f := newFixture(t)
	owner := addr(0x01)
	id := f.createProfile(t, owner, "alice.soc")
	first := f.post(t, owner, id)
	second := f.post(t, owner, id)
	if first != 1 || second != 2 {
		t.Fatalf("pub ids = %d, %d; want 1, 2", first, second)
	}
	pubType, err := f.engine.GetPubType(id, first)
	if err != nil || pubType != PubPost {
		t.Fatalf("type = %s %v, want post", pubType, err)
	}
	pub, err := f.engine.GetPublication(id, first)
	if err != nil {
		t.Fatalf("get publication: %v", err)
	}
	if pub.EchoID == 0 {
		t.Fatalf("post not bound to an echo series")
	}
	if len(f.collect.inits) != 2 {
		t.Fatalf("collect module initialized %d times, want 2", len(f.collect.inits))
	}
}

func TestPostRequiresWhitelistedCollectModule(t *testing.T) {
	f := newFixture(t)
	owner := addr(0x01)
	id := f.createProfile(t, owner, "alice.soc")
	_, err := f.engine.Post(owner, PostInput{ProfileID: id, CollectModule: addr(0x55)})
	if !errors.Is(err, ErrCollectModuleNotWhitelisted) {
		t.Fatalf("err = %v, want ErrCollectModuleNotWhitelisted", err)
	}
	// The zero address is not a valid collect module either.
	_, err = f.engine.Post(owner, PostInput{ProfileID: id})
	if !errors.Is(err, ErrCollectModuleNotWhitelisted) {
		t.Fatalf("err = %v, want ErrCollectModuleNotWhitelisted", err)
	}
}

func TestPostRequiresWhitelistedReferenceModule(t *testing.T) {
	f := newFixture(t)
	owner := addr(0x01)
	id := f.createProfile(t, owner, "alice.soc")
	_, err := f.engine.Post(owner, PostInput{
		ProfileID:       id,
		CollectModule:   f.collectAddr,
		ReferenceModule: addr(0x55),
	})
	if !errors.Is(err, ErrReferenceModuleNotWhitelisted) {
		t.Fatalf("err = %v, want ErrReferenceModuleNotWhitelisted", err)
	}
}

func TestCommentStoresPointer(t *testing.T) {
	f := newFixture(t)
	alice, bob := addr(0x01), addr(0x02)
	aliceID := f.createProfile(t, alice, "alice.soc")
	bobID := f.createProfile(t, bob, "bob.soc")
	rootID := f.post(t, alice, aliceID)

	commentID, err := f.engine.Post(bob, PostInput{
		ProfileID:        bobID,
		ContentURI:       "ipfs://comment",
		CollectModule:    f.collectAddr,
		ProfileIDPointed: aliceID,
		PubIDPointed:     rootID,
	})
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	pubType, _ := f.engine.GetPubType(bobID, commentID)
	if pubType != PubComment {
		t.Fatalf("type = %s, want comment", pubType)
	}
	pub, _ := f.engine.GetPublication(bobID, commentID)
	if pub.ProfileIDPointed != aliceID || pub.PubIDPointed != rootID {
		t.Fatalf("pointer = (%d,%d), want (%d,%d)", pub.ProfileIDPointed, pub.PubIDPointed, aliceID, rootID)
	}
}

func TestCommentOnMirrorPointsAtRoot(t *testing.T) {
	f := newFixture(t)
	alice, bob, carol := addr(0x01), addr(0x02), addr(0x03)
	aliceID := f.createProfile(t, alice, "alice.soc")
	bobID := f.createProfile(t, bob, "bob.soc")
	carolID := f.createProfile(t, carol, "carol.soc")
	rootID := f.post(t, alice, aliceID)

	mirrorID, err := f.engine.Mirror(bob, MirrorInput{
		ProfileID:        bobID,
		ProfileIDPointed: aliceID,
		PubIDPointed:     rootID,
	})
	if err != nil {
		t.Fatalf("mirror: %v", err)
	}
	// Commenting on the mirror resolves through it: the stored pointer
	// names the root post.
	commentID, err := f.engine.Post(carol, PostInput{
		ProfileID:        carolID,
		CollectModule:    f.collectAddr,
		ProfileIDPointed: bobID,
		PubIDPointed:     mirrorID,
	})
	if err != nil {
		t.Fatalf("comment on mirror: %v", err)
	}
	pub, _ := f.engine.GetPublication(carolID, commentID)
	if pub.ProfileIDPointed != aliceID || pub.PubIDPointed != rootID {
		t.Fatalf("pointer = (%d,%d), want root (%d,%d)", pub.ProfileIDPointed, pub.PubIDPointed, aliceID, rootID)
	}
}

func TestCommentConsultsTargetReferenceModule(t *testing.T) {
	f := newFixture(t)
	alice, bob := addr(0x01), addr(0x02)
	aliceID := f.createProfile(t, alice, "alice.soc")
	bobID := f.createProfile(t, bob, "bob.soc")
	rootID, err := f.engine.Post(alice, PostInput{
		ProfileID:       aliceID,
		CollectModule:   f.collectAddr,
		ReferenceModule: f.refAddr,
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	rejection := errors.New("comments closed")
	f.reference.rejectComment = rejection
	_, err = f.engine.Post(bob, PostInput{
		ProfileID:        bobID,
		CollectModule:    f.collectAddr,
		ProfileIDPointed: aliceID,
		PubIDPointed:     rootID,
	})
	if !errors.Is(err, rejection) {
		t.Fatalf("err = %v, want module rejection", err)
	}
	// A rejected comment allocates nothing.
	profile, _ := f.engine.GetProfile(bobID)
	if profile.PubCount != 0 {
		t.Fatalf("pub count = %d after rejected comment", profile.PubCount)
	}

	f.reference.rejectComment = nil
	if _, err := f.engine.Post(bob, PostInput{
		ProfileID:        bobID,
		CollectModule:    f.collectAddr,
		ProfileIDPointed: aliceID,
		PubIDPointed:     rootID,
	}); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if f.reference.comments != 1 {
		t.Fatalf("reference module consulted %d times, want 1", f.reference.comments)
	}
}

func TestCommentOnMissingTarget(t *testing.T) {
	f := newFixture(t)
	owner := addr(0x01)
	id := f.createProfile(t, owner, "alice.soc")
	_, err := f.engine.Post(owner, PostInput{
		ProfileID:        id,
		CollectModule:    f.collectAddr,
		ProfileIDPointed: 42,
		PubIDPointed:     7,
	})
	if !errors.Is(err, ErrPublicationNotFound) {
		t.Fatalf("err = %v, want ErrPublicationNotFound", err)
	}
}

func TestMirrorBindsFirstReceiptOnce(t *testing.T) {
	f := newFixture(t)
	alice, bob, carol := addr(0x01), addr(0x02), addr(0x03)
	aliceID := f.createProfile(t, alice, "alice.soc")
	bobID := f.createProfile(t, bob, "bob.soc")
	carolID := f.createProfile(t, carol, "carol.soc")
	rootID := f.post(t, alice, aliceID)

	if _, err := f.engine.Mirror(bob, MirrorInput{ProfileID: bobID, ProfileIDPointed: aliceID, PubIDPointed: rootID}); err != nil {
		t.Fatalf("mirror: %v", err)
	}
	root, _ := f.engine.GetPublication(aliceID, rootID)
	if root.MirrorID != 1 {
		t.Fatalf("first mirror binding = %d, want 1", root.MirrorID)
	}
	if _, err := f.engine.Mirror(carol, MirrorInput{ProfileID: carolID, ProfileIDPointed: aliceID, PubIDPointed: rootID}); err != nil {
		t.Fatalf("second mirror: %v", err)
	}
	root, _ = f.engine.GetPublication(aliceID, rootID)
	if root.MirrorID != 1 {
		t.Fatalf("first-mirror binding overwritten: %d", root.MirrorID)
	}
}

func TestMirrorOfMirrorPointsAtRoot(t *testing.T) {
	f := newFixture(t)
	alice, bob, carol := addr(0x01), addr(0x02), addr(0x03)
	aliceID := f.createProfile(t, alice, "alice.soc")
	bobID := f.createProfile(t, bob, "bob.soc")
	carolID := f.createProfile(t, carol, "carol.soc")
	rootID := f.post(t, alice, aliceID)

	firstMirror, err := f.engine.Mirror(bob, MirrorInput{ProfileID: bobID, ProfileIDPointed: aliceID, PubIDPointed: rootID})
	if err != nil {
		t.Fatalf("mirror: %v", err)
	}
	secondMirror, err := f.engine.Mirror(carol, MirrorInput{ProfileID: carolID, ProfileIDPointed: bobID, PubIDPointed: firstMirror})
	if err != nil {
		t.Fatalf("mirror of mirror: %v", err)
	}
	pub, _ := f.engine.GetPublication(carolID, secondMirror)
	if pub.ProfileIDPointed != aliceID || pub.PubIDPointed != rootID {
		t.Fatalf("pointer = (%d,%d), want root (%d,%d)", pub.ProfileIDPointed, pub.PubIDPointed, aliceID, rootID)
	}
	pubType, _ := f.engine.GetPubType(carolID, secondMirror)
	if pubType != PubMirror {
		t.Fatalf("type = %s, want mirror", pubType)
	}
}

func TestMirrorConsultsRootReferenceModule(t *testing.T) {
	f := newFixture(t)
	alice, bob := addr(0x01), addr(0x02)
	aliceID := f.createProfile(t, alice, "alice.soc")
	bobID := f.createProfile(t, bob, "bob.soc")
	rootID, err := f.engine.Post(alice, PostInput{
		ProfileID:       aliceID,
		CollectModule:   f.collectAddr,
		ReferenceModule: f.refAddr,
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	rejection := errors.New("mirrors closed")
	f.reference.rejectMirror = rejection
	if _, err := f.engine.Mirror(bob, MirrorInput{ProfileID: bobID, ProfileIDPointed: aliceID, PubIDPointed: rootID}); !errors.Is(err, rejection) {
		t.Fatalf("err = %v, want module rejection", err)
	}
	f.reference.rejectMirror = nil
	if _, err := f.engine.Mirror(bob, MirrorInput{ProfileID: bobID, ProfileIDPointed: aliceID, PubIDPointed: rootID}); err != nil {
		t.Fatalf("mirror: %v", err)
	}
	if f.reference.mirrors != 1 {
		t.Fatalf("reference module consulted %d times, want 1", f.reference.mirrors)
	}
}

func TestGetPubTypeUnknownIsNonexistent(t *testing.T) {
	f := newFixture(t)
	pubType, err := f.engine.GetPubType(42, 7)
	if err != nil {
		t.Fatalf("get pub type: %v", err)
	}
	if pubType != PubNonexistent {
		t.Fatalf("type = %s, want nonexistent", pubType)
	}
}
