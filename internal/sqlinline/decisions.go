package sqlinline

const QEnsureDecisionsTable = `--sql 90a34d7a-44b2-4734-a427-ca597d85ff83
create table if not exists admission_decisions (
    id uuid primary key,
    group_id bigint not null,
    user_id bigint not null,
    flag text not null default '',
    trade_no text not null default '',
    donor_id text not null default '',
    state text not null,
    reason text not null default '',
    created_at timestamptz not null default now()
);
`

const QInsertDecision = `--sql 9f556b2c-8faa-4005-8a6d-ddecaaf6a238
insert into admission_decisions(id, group_id, user_id, flag, trade_no, donor_id, state, reason, created_at)
values ($1::uuid, $2::bigint, $3::bigint, $4::text, $5::text, $6::text, $7::text, $8::text, $9::timestamptz);
`

const QListDecisionsByGroup = `--sql b7e78d31-c24f-4e83-8182-51c1af8f7955
select id, group_id, user_id, flag, trade_no, donor_id, state, reason, created_at
from admission_decisions
where group_id = $1::bigint
order by created_at desc
limit $2::int;
`
