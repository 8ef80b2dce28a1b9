package stratz

// GraphQL documents sent to the STRATZ endpoint. Variables use the
// $name placeholder syntax consumed by bindQuery.

const patchesQuery = `
{
  constants {
    gameVersions {
      id
      name
      asOfDateTime
    }
  }
}
`

const heroesQuery = `
{
  constants {
    heroes {
      id
      shortName
      displayName
    }
  }
}
`

const itemsQuery = `
{
  constants {
    items {
      id
      shortName
      displayName
    }
  }
}
`

const tournamentsQuery = `
{
  leagues(request: {tiers: $tiers, skip: $skip, take: $take}) {
    id
    displayName
    startDateTime
    endDateTime
    tier
    prizePool
  }
}
`

const tournamentMatchesQuery = `
{
  league(id: $league_id) {
    matches(request: {skip: $skip, take: $take}) {
      id
      leagueId
    }
  }
}
`

const teamsQuery = `
{
  teams(teamIds: $team_ids) {
    id
    name
    tag
    countryCode
    dateCreated
  }
}
`

const matchesQuery = `
{
  matches(ids: $match_ids) {
    id
    replaySalt
    gameVersionId
    leagueId
    seriesId
    radiantTeamId
    direTeamId
    startDateTime
    isStats
    didRadiantWin
    durationSeconds
    regionId
    lobbyType
    gameMode
    league {
      id
      displayName
      startDateTime
      endDateTime
      tier
      prizePool
    }
    radiantTeam {
      id
      name
      tag
      countryCode
      dateCreated
    }
    direTeam {
      id
      name
      tag
      countryCode
      dateCreated
    }
    players {
      steamAccountId
      steamAccount {
        id
        name
        proSteamAccount {
          name
        }
      }
      heroId
      playerSlot
      partyId
      leaverStatus
      isRandom
      playbackData {
        playerUpdatePositionEvents { time x y }
        abilityLearnEvents { time abilityId levelObtained }
        abilityUsedEvents { time abilityId targetHeroId }
        purchaseEvents { time itemId }
        itemUsedEvents { time itemId targetHeroId }
        killEvents { time target x y }
        deathEvents { time attacker x y goldLost }
        assistEvents { time target x y }
        csEvents { time npcId isDeny x y }
        buyBackEvents { time cost }
        wardEvents { time wardType action x y }
        runeEvents { time rune action x y }
        playerUpdateGoldEvents { time delta }
        playerUpdateExperienceEvents { time delta }
      }
    }
    stats {
      pickBans {
        isPick
        heroId
        bannedHeroId
        wasBannedSuccessfully
        playerIndex
        order
      }
    }
  }
}
`

const reparseMutation = `
mutation {
  stratz {
    matchRetry(replaySalts: $replay_salts)
  }
}
`
