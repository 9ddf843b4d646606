package relay

// DefaultRelays is the public relay set used when no relays are configured.
var DefaultRelays = []string{
	"wss://relay.damus.io",
	"wss://nostr-pub.wellorder.net",
	"wss://nostr.mom",
	"wss://nostr.slothy.win",
	"wss://nostr.einundzwanzig.space",
	"wss://nos.lol",
	"wss://relay.nostr.band",
	"wss://no.str.cr",
	"wss://nostr.massmux.com",
	"wss://nostr-relay.schnitzel.world",
	"wss://relay.nostr.com.au",
	"wss://knostr.neutrine.com",
	"wss://nostr.nodeofsven.com",
	"wss://nostr.vulpem.com",
	"wss://nostr-verif.slothy.win",
	"wss://relay.lexingtonbitcoin.org",
	"wss://nostr-1.nbo.angani.co",
	"wss://relay.wellorder.net",
	"wss://nostr.easydns.ca",
	"wss://relay.dwadziesciajeden.pl",
	"wss://nostr.data.haus",
	"wss://relay.nostromo.social",
	"wss://offchain.pub",
	"wss://relay.nostr.wirednet.jp",
	"wss://relay.nostrcheck.me",
	"wss://nostrue.com",
	"wss://nproxy.kristapsk.lv",
	"wss://nostr.spaceshell.xyz",
	"wss://nostr-dev.wellorder.net",
	"wss://nostr-verified.wellorder.net",
	"wss://nostr.roundrockbitcoiners.com",
	"wss://slick.mjex.me",
	"wss://nostr.yael.at",
	"wss://relay.primal.net",
	"wss://nostr.oxtr.dev",
	"wss://nostr.21crypto.ch",
	"wss://nostr.liberty.fans",
	"wss://nostr-02.dorafactory.org",
	"wss://relay.hodl.ar",
	"wss://nostr.middling.mydns.jp",
	"wss://nostr.namek.link",
	"wss://nostrja-kari.heguro.com",
	"wss://nostr.hifish.org",
	"wss://nostr.rikmeijer.nl",
	"wss://black.nostrcity.club",
	"wss://nostr.hekster.org",
	"wss://relay.wavlake.com",
	"wss://nostr.sagaciousd.com",
	"wss://nostr.fbxl.net",
	"wss://ithurtswhenip.ee",
	"wss://relay2.nostrchat.io",
	"wss://relay1.nostrchat.io",
	"wss://nostr-01.yakihonne.com",
	"wss://nostr.sathoarder.com",
	"wss://nostr.overmind.lol",
	"wss://relay.verified-nostr.com",
	"wss://purplerelay.com",
	"wss://relay.orangepill.ovh",
	"wss://nostr-relay.psfoundation.info",
	"wss://soloco.nl",
	"wss://relay.froth.zone",
	"wss://nostr.stakey.net",
	"wss://nostr.2b9t.xyz",
	"wss://pyramid.fiatjaf.com",
	"wss://a.nos.lol",
	"wss://relay.magiccity.live",
	"wss://nostr.notribe.net",
	"wss://freelay.sovbit.host",
	"wss://relay.credenso.cafe",
	"wss://nostr.huszonegy.world",
	"wss://multiplexer.huszonegy.world",
	"wss://bucket.coracle.social",
	"wss://nostr.kungfu-g.rip",
	"wss://relay.artx.market",
	"wss://relay.notoshi.win",
	"wss://vitor.nostr1.com",
	"wss://nostr-02.yakihonne.com",
	"wss://nostr-03.dorafactory.org",
	"wss://n.ok0.org",
	"wss://nostr.0x7e.xyz",
	"wss://relay.nostr.net",
	"wss://strfry.openhoofd.nl",
	"wss://relay.fountain.fm",
	"wss://relay.usefusion.ai",
	"wss://relay.varke.eu",
	"wss://nostr.satstralia.com",
	"wss://relay.13room.space",
	"wss://nostr.myshosholoza.co.za",
	"wss://nostr.carroarmato0.be",
	"wss://nostr.dbtc.link",
	"wss://orangepiller.org",
	"wss://adre.su",
	"wss://relay.sincensura.org",
	"wss://relay.freeplace.nl",
	"wss://bostr.bitcointxoko.com",
	"wss://nostr.plantroon.com",
	"wss://srtrelay.c-stellar.net",
	"wss://nostr.jfischer.org",
	"wss://nostr.novacisko.cz",
	"wss://relay.lumina.rocks",
	"wss://nostr.tavux.tech",
	"wss://relay.nostrhub.fr",
	"wss://relay.agorist.space",
	"wss://chorus.pjv.me",
	"wss://relay.cosmicbolt.net",
	"wss://santo.iguanatech.net",
	"wss://relay.tagayasu.xyz",
	"wss://relay.mostro.network",
	"wss://relay.zone667.com",
	"wss://relay5.bitransfer.org",
	"wss://relay.illuminodes.com",
	"wss://relay2.angor.io",
	"wss://relay.satsdays.com",
	"wss://relay.angor.io",
	"wss://orangesync.tech",
	"wss://nostr-relay.cbrx.io",
	"wss://relay.21e6.cz",
	"wss://nostr.chaima.info",
	"wss://relay.satlantis.io",
	"wss://relay.digitalezukunft.cyou",
	"wss://relay.tapestry.ninja",
	"wss://relay.minibolt.info",
	"wss://nostr.bilthon.dev",
	"wss://nostr.makibisskey.work",
	"wss://relay.mattybs.lol",
	"wss://noxir.kpherox.dev",
	"wss://sendit.nosflare.com",
	"wss://relay.coinos.io",
	"wss://relay.nostraddress.com",
	"wss://wot.nostr.party",
	"wss://nostrelites.org",
	"wss://relay.nostriot.com",
	"wss://prl.plus",
	"wss://zap.watch",
	"wss://wot.codingarena.top",
	"wss://nostr.azzamo.net",
	"wss://wot.sudocarlos.com",
	"wss://relay.lnfi.network",
	"wss://wot.nostr.net",
	"wss://relay.nostrdice.com",
	"wss://wot.sebastix.social",
	"wss://wheat.happytavern.co",
	"wss://relay.sigit.io",
	"wss://strfry.bonsai.com",
	"wss://travis-shears-nostr-relay-v2.fly.dev",
	"wss://satsage.xyz",
	"wss://relay.degmods.com",
	"wss://nostr.community.ath.cx",
	"wss://nostr.coincrowd.fund",
	"wss://strfry.shock.network",
	"wss://cyberspace.nostr1.com",
	"wss://relay02.lnfi.network",
	"wss://nostr-rs-relay.dev.fedibtc.com",
	"wss://relay.davidebtc.me",
	"wss://wot.dtonon.com",
	"wss://relay.goodmorningbitcoin.com",
	"wss://articles.layer3.news",
	"wss://bostr.syobon.net",
	"wss://nostr.agentcampfire.com",
	"wss://nostr.thebiglake.org",
	"wss://schnorr.me",
	"wss://relay.wolfcoil.com",
	"wss://nostr.camalolo.com",
	"wss://nostr.tac.lol",
	"wss://dev-relay.lnfi.network",
	"wss://relay.bitcoinveneto.org",
	"wss://nostr.red5d.dev",
	"wss://relay-testnet.k8s.layer3.news",
	"wss://promenade.fiatjaf.com",
	"wss://nostrelay.memory-art.xyz",
	"wss://inbox.azzamo.net",
	"wss://social.proxymana.net",
	"wss://relay.netstr.io",
	"wss://premium.primal.net",
	"wss://nostr.lojong.info",
	"wss://nostr-rs-relay-ishosta.phamthanh.me",
	"wss://relay.stream.labs.h3.se",
	"wss://tollbooth.stens.dev",
	"wss://relay.chakany.systems",
	"wss://relay.mwaters.net",
	"wss://nostr-relay.shirogaku.xyz",
	"wss://kitchen.zap.cooking",
	"wss://relay.arx-ccn.com",
	"wss://relay.fr13nd5.com",
	"wss://nostr.tegila.com.br",
	"wss://relay.jeffg.fyi",
	"wss://relay.bullishbounty.com",
	"wss://nostr.spicyz.io",
	"wss://relay04.lnfi.network",
	"wss://vidono.apps.slidestr.net",
	"wss://relay03.lnfi.network",
	"wss://communities.nos.social",
	"wss://relay.evanverma.com",
	"wss://nostrelay.circum.space",
	"wss://wot.brightbolt.net",
	"wss://relayrs.notoshi.win",
	"wss://fenrir-s.notoshi.win",
	"wss://relay.nsnip.io",
	"wss://x.kojira.io",
	"wss://relay.hasenpfeffr.com",
	"wss://relay01.lnfi.network",
	"wss://nostr.rtvslawenia.com",
	"wss://relay.g1sms.fr",
	"wss://nostr.kalf.org",
	"wss://nostr.rblb.it",
	"wss://nostr.4rs.nl",
	"wss://relay.vrtmrz.net",
	"wss://nostr.hoppe-relay.it.com",
	"wss://relay-rpi.edufeed.org",
	"wss://relay.copylaradio.com",
	"wss://relay.ru.ac.th",
	"wss://relay.bitcoinartclock.com",
	"wss://wot.downisontheup.ca",
	"wss://nostr.coincards.com",
	"wss://relay.etch.social",
	"wss://relay.mess.ch",
	"wss://relay.holzeis.me",
	"wss://relay-admin.thaliyal.com",
	"wss://nostr.thaliyal.com",
	"wss://strfry.felixzieger.de",
	"wss://nostr.smut.cloud",
	"wss://r.bitcoinhold.net",
	"wss://nostr.blankfors.se",
	"wss://portal-relay.pareto.space",
	"wss://relay.getsafebox.app",
	"wss://relay.anzenkodo.workers.dev",
	"wss://relay.nostrhub.tech",
	"wss://nostr.prl.plus",
	"wss://nostr-2.21crypto.ch",
	"wss://nostr.zenon.network",
	"wss://nostr-relay.amethyst.name",
	"wss://relayone.geektank.ai",
	"wss://fanfares.nostr1.com",
	"wss://wot.geektank.ai",
	"wss://relay-dev.satlantis.io",
	"wss://relay.siamdev.cc",
	"wss://relay.nosto.re",
	"wss://wot.soundhsa.com",
	"wss://nostr.n7ekb.net",
	"wss://relayone.soundhsa.com",
	"wss://relay.puresignal.news",
	"wss://relay.nostx.io",
	"wss://nostr.now",
	"wss://relay.artiostr.ch",
	"wss://relay.oldenburg.cool",
	"wss://theoutpost.life",
	"wss://khatru.nostrver.se",
	"wss://relay.wavefunc.live",
	"wss://nostr-relay.zimage.com",
	"wss://relay.javi.space",
	"wss://bostr.shop",
	"wss://relay.letsfo.com",
	"wss://alien.macneilmediagroup.com",
	"wss://rn1.sotiras.org",
	"wss://gnostr.com",
	"wss://relay.conduit.market",
	"wss://relay.hivetalk.org",
	"wss://nostr.l484.com",
	"wss://relay.chorus.community",
	"wss://nostr-relay.moe.gift",
	"wss://relay.nostrcal.com",
	"wss://temp.iris.to",
	"wss://librerelay.aaroniumii.com",
	"wss://nostr-relay-1.trustlessenterprise.com",
	"wss://relay.barine.co",
	"wss://nostr.rohoss.com",
	"wss://wot.nostr.place",
	"wss://relay.utxo.farm",
	"wss://relay.bankless.at",
	"wss://relay.toastr.net",
	"wss://nostr.excentered.com",
	"wss://relay.mccormick.cx",
	"wss://relay.cypherflow.ai",
	"wss://relay.laantungir.net",
	"wss://nostr.veladan.dev",
	"wss://nostr.tadryanom.me",
	"wss://nostr-relay.online",
	"wss://nostr.night7.space",
	"wss://dev-nostr.bityacht.io",
}
